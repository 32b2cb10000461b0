package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/encryption"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreate_EncryptsContacts(t *testing.T) {
	users := newFakeUsers()
	cipher := testCipher()
	svc := NewUserService(users, cipher, 4)

	resp, err := svc.Create(context.Background(), &dto.CreateUserRequest{
		Email:    " Admin@Example.com ",
		Password: "correct-horse",
		Name:     "Admin",
		Mobile:   "+60123456789",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", resp.Email)
	assert.Equal(t, "+60123456789", resp.Mobile)
	assert.True(t, resp.IsActive)

	stored := users.rows[resp.ID]
	assert.NotEqual(t, "admin@example.com", stored.Email)
	assert.Equal(t, cipher.Hash("admin@example.com"), stored.EmailHash)
	assert.Equal(t, cipher.Hash("+60123456789"), stored.MobileHash)
	assert.True(t, encryption.CheckPassword(stored.PasswordHash, "correct-horse"))

	_, err = svc.Create(context.Background(), &dto.CreateUserRequest{Email: "admin@example.com", Password: "whatever1"})
	assert.True(t, errors.Is(err, ErrUserAlreadyExists))
}

func TestUserUpdate(t *testing.T) {
	users := newFakeUsers()
	svc := NewUserService(users, testCipher(), 4)
	ctx := context.Background()

	first, err := svc.Create(ctx, &dto.CreateUserRequest{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &dto.CreateUserRequest{Email: "b@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, first.ID, &dto.UpdateUserRequest{Email: strPtr("b@example.com")})
	assert.True(t, errors.Is(err, ErrUserAlreadyExists))

	resp, err := svc.Update(ctx, first.ID, &dto.UpdateUserRequest{
		Email:      strPtr("c@example.com"),
		Password:   strPtr("password2"),
		IsVerified: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "c@example.com", resp.Email)
	assert.True(t, resp.IsVerified)
	assert.True(t, encryption.CheckPassword(users.rows[first.ID].PasswordHash, "password2"))

	_, err = svc.Update(ctx, "missing", &dto.UpdateUserRequest{})
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestUserList_Scoped(t *testing.T) {
	svc := NewUserService(newFakeUsers(), testCipher(), 4)

	_, err := svc.List(context.Background(), staffOf(""), &dto.ListUsersQuery{})
	assert.True(t, errors.Is(err, ErrAccessDenied))

	page, err := svc.List(context.Background(), superAdmin(), &dto.ListUsersQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.NotNil(t, page.Items)
}

func TestUserDelete(t *testing.T) {
	users := newFakeUsers(&domain.User{ID: "u-1"})
	svc := NewUserService(users, testCipher(), 4)

	require.NoError(t, svc.Delete(context.Background(), "u-1"))
	assert.Empty(t, users.rows)
	assert.True(t, errors.Is(svc.Delete(context.Background(), "u-1"), ErrUserNotFound))
}

type membershipFixture struct {
	svc         UserCompanyService
	memberships *fakeMemberships
}

func newMembershipFixture() *membershipFixture {
	perms := newFakePermissions()
	roles := newFakeRoles(perms,
		&domain.Role{ID: "r-admin", Slug: "company_admin", Name: "Company Admin", Level: 80},
		&domain.Role{ID: "r-staff", Slug: "staff", Name: "Staff", Level: 10},
	)
	companies := newFakeCompanies(
		&domain.Company{ID: companyA, Name: "Acme", Slug: "acme", IsActive: true},
		&domain.Company{ID: companyB, Name: "Beta", Slug: "beta", IsActive: true},
	)
	users := newFakeUsers(&domain.User{ID: "u-1", IsActive: true})
	memberships := newFakeMemberships(companies, roles)
	return &membershipFixture{
		svc:         NewUserCompanyService(memberships, users, companies, roles),
		memberships: memberships,
	}
}

func TestUserCompanyAdd(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()

	first, err := f.svc.Add(ctx, "u-1", &dto.AddUserCompanyRequest{CompanyID: companyA, RoleID: "r-staff"})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary, "first membership becomes primary")

	second, err := f.svc.Add(ctx, "u-1", &dto.AddUserCompanyRequest{CompanyID: companyB, RoleID: "r-admin", IsPrimary: true})
	require.NoError(t, err)
	assert.True(t, second.IsPrimary)

	list, err := f.svc.List(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, companyB, list[0].CompanyID, "primary first")
	assert.False(t, list[1].IsPrimary)

	_, err = f.svc.Add(ctx, "u-1", &dto.AddUserCompanyRequest{CompanyID: companyA, RoleID: "r-staff"})
	assert.True(t, errors.Is(err, ErrUserCompanyExists))
}

func TestUserCompanyAdd_MissingReferences(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "ghost", &dto.AddUserCompanyRequest{CompanyID: companyA, RoleID: "r-staff"})
	assert.True(t, errors.Is(err, ErrUserNotFound))

	_, err = f.svc.Add(ctx, "u-1", &dto.AddUserCompanyRequest{CompanyID: "nope", RoleID: "r-staff"})
	assert.True(t, errors.Is(err, ErrCompanyNotFound))

	_, err = f.svc.Add(ctx, "u-1", &dto.AddUserCompanyRequest{CompanyID: companyA, RoleID: "nope"})
	assert.True(t, errors.Is(err, ErrRoleNotFound))
}

func TestUserCompanyChangeRoleAndRemove(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "u-1", &dto.AddUserCompanyRequest{CompanyID: companyA, RoleID: "r-staff"})
	require.NoError(t, err)

	uc, err := f.svc.ChangeRole(ctx, "u-1", companyA, "r-admin")
	require.NoError(t, err)
	assert.Equal(t, "r-admin", uc.RoleID)
	assert.Equal(t, 80, uc.Role.Level)

	require.NoError(t, f.svc.Remove(ctx, "u-1", companyA))
	assert.True(t, errors.Is(f.svc.Remove(ctx, "u-1", companyA), ErrUserCompanyNotFound))
	assert.True(t, errors.Is(f.svc.SetPrimary(ctx, "u-1", companyA), ErrUserCompanyNotFound))
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, sep, want string
	}{
		{"Acme Corp", "-", "acme-corp"},
		{"  Lucky  Wheel!! 2026 ", "-", "lucky-wheel-2026"},
		{"Company Admin", "_", "company_admin"},
		{"***", "-", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in, tt.sep), tt.in)
	}
}

func TestCompanyCreate_GeneratesSlugAndSecret(t *testing.T) {
	repo := newFakeCompanies()
	cipher := testCipher()
	svc := NewCompanyService(repo, cipher)

	resp, err := svc.Create(context.Background(), &dto.CreateCompanyRequest{Name: "Acme Corp"})
	require.NoError(t, err)
	assert.Equal(t, "acme-corp", resp.Slug)
	assert.Len(t, resp.APISecret, 64)

	stored := repo.rows[resp.ID]
	assert.NotEqual(t, resp.APISecret, stored.APISecret, "secret is stored encrypted")
	assert.Equal(t, resp.APISecret, cipher.Decrypt(stored.APISecret))
	assert.True(t, stored.IsActive)

	_, err = svc.Create(context.Background(), &dto.CreateCompanyRequest{Name: "ACME corp"})
	assert.True(t, errors.Is(err, ErrCompanyAlreadyExists))
}

func TestCompanyCreate_KeepsProvidedSecret(t *testing.T) {
	svc := NewCompanyService(newFakeCompanies(), testCipher())

	resp, err := svc.Create(context.Background(), &dto.CreateCompanyRequest{Name: "Acme", Slug: "acme", APISecret: "0123456789abcdef"})
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", resp.APISecret)
}

func TestCompanyGet_TenantIsolation(t *testing.T) {
	svc := NewCompanyService(newFakeCompanies(
		&domain.Company{ID: companyA, Name: "Acme", Slug: "acme", IsActive: true},
		&domain.Company{ID: companyB, Name: "Beta", Slug: "beta", IsActive: true},
	), testCipher())
	ctx := context.Background()

	_, err := svc.GetByID(ctx, staffOf(companyA), companyB)
	assert.True(t, errors.Is(err, ErrAccessDenied))

	resp, err := svc.GetBySlug(ctx, staffOf(companyA), "acme")
	require.NoError(t, err)
	assert.Equal(t, companyA, resp.ID)
	assert.Empty(t, resp.APISecret)

	_, err = svc.GetByID(ctx, superAdmin(), "missing")
	assert.True(t, errors.Is(err, ErrCompanyNotFound))
}

func TestCompanyList(t *testing.T) {
	svc := NewCompanyService(newFakeCompanies(
		&domain.Company{ID: companyA, Name: "Acme", Slug: "acme", IsActive: true},
		&domain.Company{ID: companyB, Name: "Beta", Slug: "beta", IsActive: false},
	), testCipher())
	ctx := context.Background()

	page, err := svc.List(ctx, superAdmin(), &dto.ListCompaniesQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = svc.List(ctx, superAdmin(), &dto.ListCompaniesQuery{IsActive: boolPtr(false)})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "beta", page.Items[0].Slug)

	page, err = svc.List(ctx, staffOf(companyA), &dto.ListCompaniesQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, companyA, page.Items[0].ID)
}

func TestCompanyUpdate_InactiveAt(t *testing.T) {
	repo := newFakeCompanies(
		&domain.Company{ID: companyA, Name: "Acme", Slug: "acme", IsActive: true},
		&domain.Company{ID: companyB, Name: "Beta", Slug: "beta", IsActive: true},
	)
	svc := NewCompanyService(repo, testCipher())
	ctx := context.Background()

	resp, err := svc.Update(ctx, superAdmin(), companyA, &dto.UpdateCompanyRequest{IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, resp.IsActive)
	assert.NotNil(t, repo.rows[companyA].InactiveAt)

	_, err = svc.Update(ctx, superAdmin(), companyA, &dto.UpdateCompanyRequest{IsActive: boolPtr(true)})
	require.NoError(t, err)
	assert.Nil(t, repo.rows[companyA].InactiveAt)

	_, err = svc.Update(ctx, superAdmin(), companyA, &dto.UpdateCompanyRequest{Slug: strPtr("beta")})
	assert.True(t, errors.Is(err, ErrCompanyAlreadyExists))

	_, err = svc.Update(ctx, superAdmin(), companyA, &dto.UpdateCompanyRequest{})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestCompanyRotateSecret(t *testing.T) {
	cipher := testCipher()
	old, err := cipher.Encrypt("old-secret")
	require.NoError(t, err)
	repo := newFakeCompanies(&domain.Company{ID: companyA, Name: "Acme", Slug: "acme", APISecret: old, IsActive: true})
	svc := NewCompanyService(repo, cipher)

	resp, err := svc.RotateSecret(context.Background(), staffOf(companyA), companyA)
	require.NoError(t, err)
	assert.NotEqual(t, "old-secret", resp.APISecret)
	assert.Equal(t, resp.APISecret, cipher.Decrypt(repo.rows[companyA].APISecret))
}

func TestCompanyDelete(t *testing.T) {
	repo := newFakeCompanies(&domain.Company{ID: companyA, Name: "Acme", Slug: "acme"})
	svc := NewCompanyService(repo, testCipher())

	require.NoError(t, svc.Delete(context.Background(), companyA))
	assert.Empty(t, repo.rows)
	assert.True(t, errors.Is(svc.Delete(context.Background(), companyA), ErrCompanyNotFound))
}

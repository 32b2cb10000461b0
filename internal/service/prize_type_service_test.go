package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	companyA = "11111111-1111-1111-1111-111111111111"
	companyB = "22222222-2222-2222-2222-222222222222"
)

func prizeType(slug, name string, companyID *string, active bool) *domain.PrizeType {
	return &domain.PrizeType{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      name,
		Slug:      slug,
		Strategy:  domain.PrizeStrategyManualFulfill,
		IsActive:  active,
	}
}

func TestFindAll_GlobalAndTenantRows(t *testing.T) {
	repo := newFakePrizeTypes(
		prizeType("points", "Points", nil, true),
		prizeType("cash", "Cash", nil, false),
		prizeType("voucher", "Voucher", strPtr(companyA), true),
		prizeType("other", "Other", strPtr(companyB), true),
	)
	svc := NewPrizeTypeService(repo)

	types, err := svc.FindAll(context.Background(), companyA)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "Points", types[0].Name)
	assert.Equal(t, "Voucher", types[1].Name)
}

func TestFindAll_BlankCompanyOnlyGlobal(t *testing.T) {
	repo := newFakePrizeTypes(
		prizeType("points", "Points", nil, true),
		prizeType("voucher", "Voucher", strPtr(companyA), true),
	)
	svc := NewPrizeTypeService(repo)

	types, err := svc.FindAll(context.Background(), "   ")
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "points", types[0].Slug)
}

func TestFindBySlug_TenantRowWins(t *testing.T) {
	global := prizeType("points", "Points", nil, true)
	tenant := prizeType("points", "Company Points", strPtr(companyA), true)
	svc := NewPrizeTypeService(newFakePrizeTypes(global, tenant))

	got, err := svc.FindBySlug(context.Background(), "points", companyA)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, got.ID)

	got, err = svc.FindBySlug(context.Background(), "points", companyB)
	require.NoError(t, err)
	assert.Equal(t, global.ID, got.ID)
}

func TestFindBySlug_InactiveIsNil(t *testing.T) {
	svc := NewPrizeTypeService(newFakePrizeTypes(prizeType("cash", "Cash", nil, false)))

	got, err := svc.FindBySlug(context.Background(), "cash", "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveType(t *testing.T) {
	inactive := prizeType("old", "Old", strPtr(companyB), false)
	points := prizeType("points", "Points", nil, true)
	svc := NewPrizeTypeService(newFakePrizeTypes(inactive, points))
	ctx := context.Background()

	t.Run("by id ignores tenant and active state", func(t *testing.T) {
		got, err := svc.ResolveType(ctx, inactive.ID, companyA)
		require.NoError(t, err)
		assert.Equal(t, inactive.ID, got.ID)
	})

	t.Run("unknown uuid falls back to slug", func(t *testing.T) {
		_, err := svc.ResolveType(ctx, uuid.New().String(), companyA)
		assert.True(t, errors.Is(err, ErrPrizeTypeNotFound))
	})

	t.Run("by slug", func(t *testing.T) {
		got, err := svc.ResolveType(ctx, "points", companyA)
		require.NoError(t, err)
		assert.Equal(t, points.ID, got.ID)
	})

	t.Run("not found message", func(t *testing.T) {
		_, err := svc.ResolveType(ctx, "nope", companyA)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPrizeTypeNotFound))
		assert.Equal(t, "Prize type nope not found", err.Error())
	})
}

func TestFindOne(t *testing.T) {
	pt := prizeType("points", "Points", nil, true)
	svc := NewPrizeTypeService(newFakePrizeTypes(pt))

	_, err := svc.FindOne(context.Background(), "points")
	require.Error(t, err)
	assert.Equal(t, "Invalid prize type ID", err.Error())
	assert.True(t, errors.Is(err, ErrPrizeTypeNotFound))

	_, err = svc.FindOne(context.Background(), uuid.New().String())
	assert.True(t, errors.Is(err, ErrPrizeTypeNotFound))

	got, err := svc.FindOne(context.Background(), pt.ID)
	require.NoError(t, err)
	assert.Equal(t, "points", got.Slug)
}

func TestCreate_Defaults(t *testing.T) {
	svc := NewPrizeTypeService(newFakePrizeTypes())

	got, err := svc.Create(context.Background(), &dto.CreatePrizeTypeRequest{
		Name:      "Voucher",
		Slug:      "voucher",
		Strategy:  domain.PrizeStrategyVirtualCode,
		CompanyID: strPtr(""),
	})
	require.NoError(t, err)
	assert.Nil(t, got.CompanyID, "blank company is global")
	assert.True(t, got.ShowValue)
	assert.False(t, got.IsPoints)
	assert.True(t, got.IsActive)
	assert.NotNil(t, got.Config)
}

func TestCreate_Validation(t *testing.T) {
	svc := NewPrizeTypeService(newFakePrizeTypes())

	_, err := svc.Create(context.Background(), &dto.CreatePrizeTypeRequest{Name: "X", Slug: "Bad Slug", Strategy: domain.PrizeStrategyManualFulfill})
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	_, err = svc.Create(context.Background(), &dto.CreatePrizeTypeRequest{Name: "X", Slug: "x", Strategy: "teleport"})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestCreate_Duplicate(t *testing.T) {
	svc := NewPrizeTypeService(newFakePrizeTypes(prizeType("voucher", "Voucher", strPtr(companyA), true)))

	_, err := svc.Create(context.Background(), &dto.CreatePrizeTypeRequest{
		Name: "Voucher", Slug: "voucher", Strategy: domain.PrizeStrategyVirtualCode, CompanyID: strPtr(companyA),
	})
	assert.True(t, errors.Is(err, ErrPrizeTypeExists))
}

func TestUpdate_BySlug(t *testing.T) {
	pt := prizeType("voucher", "Voucher", strPtr(companyA), true)
	svc := NewPrizeTypeService(newFakePrizeTypes(pt))

	got, err := svc.Update(context.Background(), "voucher", &dto.UpdatePrizeTypeRequest{
		Name:      strPtr("Voucher 2"),
		IsActive:  boolPtr(false),
		CompanyID: strPtr(""),
	}, companyA)
	require.NoError(t, err)
	assert.Equal(t, pt.ID, got.ID)
	assert.Equal(t, "Voucher 2", got.Name)
	assert.False(t, got.IsActive)
	assert.Nil(t, got.CompanyID)
}

func TestUpdate_EmptyRequest(t *testing.T) {
	svc := NewPrizeTypeService(newFakePrizeTypes())
	_, err := svc.Update(context.Background(), "x", &dto.UpdatePrizeTypeRequest{}, "")
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestRemove(t *testing.T) {
	pt := prizeType("voucher", "Voucher", strPtr(companyA), true)
	repo := newFakePrizeTypes(pt)
	svc := NewPrizeTypeService(repo)

	require.NoError(t, svc.Remove(context.Background(), "voucher", companyA))
	assert.Empty(t, repo.rows)

	err := svc.Remove(context.Background(), "voucher", companyA)
	assert.True(t, errors.Is(err, ErrPrizeTypeNotFound))
}

func TestSeedDefaults_Upserts(t *testing.T) {
	stale := prizeType("points", "Old Points", nil, false)
	stale.Strategy = domain.PrizeStrategyManualFulfill
	repo := newFakePrizeTypes(stale)
	svc := NewPrizeTypeService(repo)

	seeded, err := svc.SeedDefaults(context.Background())
	require.NoError(t, err)
	assert.Len(t, seeded, 4)
	assert.Len(t, repo.rows, 4)

	points, err := repo.GetGlobalBySlug(context.Background(), "points")
	require.NoError(t, err)
	assert.Equal(t, stale.ID, points.ID, "existing row is updated in place")
	assert.Equal(t, "Points", points.Name)
	assert.Equal(t, domain.PrizeStrategyBalanceCredit, points.Strategy)
	assert.True(t, points.IsPoints)

	item, err := repo.GetGlobalBySlug(context.Background(), "item")
	require.NoError(t, err)
	assert.False(t, item.ShowValue)
	assert.True(t, item.IsActive)

	_, err = svc.SeedDefaults(context.Background())
	require.NoError(t, err)
	assert.Len(t, repo.rows, 4, "seeding twice creates nothing new")
}

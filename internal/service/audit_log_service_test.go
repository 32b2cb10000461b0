package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRecord_StampsEntry(t *testing.T) {
	repo := &fakeAuditLogs{}
	svc := NewAuditLogService(repo)

	svc.Record(context.Background(), &domain.AuditLog{Module: "members", Action: "credit"})

	require.Len(t, repo.rows, 1)
	assert.NotEmpty(t, repo.rows[0].ID)
	assert.False(t, repo.rows[0].CreatedAt.IsZero())
}

func TestAuditList_Scope(t *testing.T) {
	repo := &fakeAuditLogs{}
	svc := NewAuditLogService(repo)
	ctx := context.Background()

	_, err := svc.List(ctx, staffOf(companyA), &dto.ListAuditLogsQuery{CompanyID: companyB})
	require.NoError(t, err)
	assert.Equal(t, repository.AuditLogScope{CompanyID: companyA, OwnUserID: "admin-1"}, repo.lastFilter.Scope,
		"requested company is ignored for non super admins")

	_, err = svc.List(ctx, superAdmin(), &dto.ListAuditLogsQuery{CompanyID: companyB, Module: "members"})
	require.NoError(t, err)
	assert.Equal(t, repository.AuditLogScope{CompanyID: companyB}, repo.lastFilter.Scope)
	assert.Equal(t, "members", repo.lastFilter.Module)
	assert.Equal(t, 1, repo.lastFilter.Page)
	assert.Equal(t, 10, repo.lastFilter.Limit)

	_, err = svc.List(ctx, &Actor{}, &dto.ListAuditLogsQuery{})
	assert.True(t, errors.Is(err, ErrAccessDenied))
}

func TestAuditGet(t *testing.T) {
	a := companyA
	repo := &fakeAuditLogs{rows: []*domain.AuditLog{
		{ID: "log-a", CompanyID: &a, Module: "members", Action: "update"},
		{ID: "log-global", Module: "settings", Action: "update"},
	}}
	svc := NewAuditLogService(repo)
	ctx := context.Background()

	log, err := svc.Get(ctx, staffOf(companyA), "log-a")
	require.NoError(t, err)
	assert.Equal(t, "members", log.Module)

	_, err = svc.Get(ctx, staffOf(companyB), "log-a")
	assert.True(t, errors.Is(err, ErrAccessDenied))

	_, err = svc.Get(ctx, staffOf(companyA), "log-global")
	assert.True(t, errors.Is(err, ErrAccessDenied))

	_, err = svc.Get(ctx, superAdmin(), "log-global")
	assert.NoError(t, err)

	_, err = svc.Get(ctx, superAdmin(), "missing")
	assert.True(t, errors.Is(err, ErrAuditLogNotFound))

	opts, err := svc.Options(ctx, superAdmin())
	require.NoError(t, err)
	assert.Equal(t, []string{"members", "settings"}, opts.Modules)
	assert.Equal(t, []string{"update"}, opts.Actions)
}

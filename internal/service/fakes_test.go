package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/client"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/encryption"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var errUnique = &pgconn.PgError{Code: "23505"}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func testCipher() *encryption.Cipher {
	c, err := encryption.New("test-encryption-key", "test-hashing-secret")
	if err != nil {
		panic(err)
	}
	return c
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	start := (page - 1) * limit
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}

// --- prize types ---

type fakePrizeTypes struct {
	mu   sync.Mutex
	rows map[string]*domain.PrizeType
}

func newFakePrizeTypes(types ...*domain.PrizeType) *fakePrizeTypes {
	f := &fakePrizeTypes{rows: make(map[string]*domain.PrizeType)}
	for _, t := range types {
		f.rows[t.ID] = t
	}
	return f
}

func visibleTo(p *domain.PrizeType, companyID string) bool {
	return p.CompanyID == nil || (companyID != "" && *p.CompanyID == companyID)
}

func (f *fakePrizeTypes) FindActive(_ context.Context, companyID string) ([]*domain.PrizeType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.PrizeType, 0)
	for _, p := range f.rows {
		if p.IsActive && visibleTo(p, companyID) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakePrizeTypes) FindActiveBySlug(_ context.Context, slug, companyID string) (*domain.PrizeType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var global *domain.PrizeType
	for _, p := range f.rows {
		if p.Slug != slug || !p.IsActive || !visibleTo(p, companyID) {
			continue
		}
		cp := *p
		if p.CompanyID != nil {
			return &cp, nil
		}
		global = &cp
	}
	return global, nil
}

func (f *fakePrizeTypes) GetByID(_ context.Context, id string) (*domain.PrizeType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePrizeTypes) GetGlobalBySlug(_ context.Context, slug string) (*domain.PrizeType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.Slug == slug && p.CompanyID == nil {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePrizeTypes) conflicts(p *domain.PrizeType) bool {
	for _, other := range f.rows {
		if other.ID == p.ID || other.Slug != p.Slug {
			continue
		}
		if (other.CompanyID == nil && p.CompanyID == nil) ||
			(other.CompanyID != nil && p.CompanyID != nil && *other.CompanyID == *p.CompanyID) {
			return true
		}
	}
	return false
}

func (f *fakePrizeTypes) Create(_ context.Context, p *domain.PrizeType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts(p) {
		return errUnique
	}
	cp := *p
	f.rows[p.ID] = &cp
	return nil
}

func (f *fakePrizeTypes) Update(_ context.Context, p *domain.PrizeType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts(p) {
		return errUnique
	}
	cp := *p
	f.rows[p.ID] = &cp
	return nil
}

func (f *fakePrizeTypes) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

// --- members and credit ---

type fakeMembers struct {
	mu     sync.Mutex
	rows   map[string]*domain.Member
	txs    []*domain.CreditTransaction
	addErr error
}

func newFakeMembers(members ...*domain.Member) *fakeMembers {
	f := &fakeMembers{rows: make(map[string]*domain.Member)}
	for _, m := range members {
		f.rows[m.ID] = m
	}
	return f
}

func (f *fakeMembers) Create(_ context.Context, m *domain.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ExternalID != nil {
		for _, other := range f.rows {
			if other.CompanyID == m.CompanyID && other.ExternalID != nil && *other.ExternalID == *m.ExternalID {
				return errUnique
			}
		}
	}
	cp := *m
	f.rows[m.ID] = &cp
	return nil
}

func (f *fakeMembers) GetByID(_ context.Context, id string) (*domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.rows[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeMembers) GetByExternalID(_ context.Context, companyID, externalID string) (*domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.rows {
		if m.CompanyID == companyID && m.ExternalID != nil && *m.ExternalID == externalID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeMembers) List(_ context.Context, filter repository.MemberFilter) ([]*domain.Member, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Member, 0)
	for _, m := range f.rows {
		if filter.CompanyID != "" && m.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Username != "" && !strings.Contains(m.Username, filter.Username) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PointsBalance > out[j].PointsBalance })
	return paginate(out, filter.Page, filter.Limit), len(out), nil
}

func (f *fakeMembers) Update(_ context.Context, m *domain.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[m.ID]; !ok {
		return repository.ErrMemberNotFound
	}
	cp := *m
	f.rows[m.ID] = &cp
	return nil
}

func (f *fakeMembers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeMembers) AddPoints(_ context.Context, id string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return 0, f.addErr
	}
	m, ok := f.rows[id]
	if !ok {
		return 0, repository.ErrMemberNotFound
	}
	m.PointsBalance += delta
	return m.PointsBalance, nil
}

func (f *fakeMembers) AdjustBalance(_ context.Context, tx *domain.CreditTransaction) (*domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[tx.MemberID]
	if !ok {
		return nil, repository.ErrMemberNotFound
	}
	tx.ID = uuid.New().String()
	tx.BalanceBefore = m.PointsBalance
	m.PointsBalance += tx.Amount
	tx.BalanceAfter = m.PointsBalance
	tx.CreatedAt = time.Now()
	f.txs = append(f.txs, tx)
	cp := *m
	return &cp, nil
}

func (f *fakeMembers) MergeGuest(_ context.Context, guestID, targetID string) (*domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	guest, ok := f.rows[guestID]
	if !ok {
		return nil, repository.ErrMemberNotFound
	}
	target, ok := f.rows[targetID]
	if !ok {
		return nil, repository.ErrMemberNotFound
	}
	target.PointsBalance += guest.PointsBalance
	delete(f.rows, guestID)
	cp := *target
	return &cp, nil
}

type fakeCredits struct {
	members *fakeMembers
}

func (f *fakeCredits) ListByMember(_ context.Context, memberID string, limit int) ([]*domain.CreditTransaction, error) {
	f.members.mu.Lock()
	defer f.members.mu.Unlock()
	out := make([]*domain.CreditTransaction, 0)
	for i := len(f.members.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if f.members.txs[i].MemberID == memberID {
			out = append(out, f.members.txs[i])
		}
	}
	return out, nil
}

func (f *fakeCredits) List(_ context.Context, filter repository.CreditTransactionFilter) ([]*domain.CreditTransaction, int, error) {
	f.members.mu.Lock()
	defer f.members.mu.Unlock()
	out := make([]*domain.CreditTransaction, 0)
	for _, tx := range f.members.txs {
		m := f.members.rows[tx.MemberID]
		if filter.CompanyID != "" && (m == nil || m.CompanyID != filter.CompanyID) {
			continue
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		out = append(out, tx)
	}
	return paginate(out, filter.Page, filter.Limit), len(out), nil
}

// --- member prizes ---

type fakePrizes struct {
	mu        sync.Mutex
	rows      map[string]*domain.MemberPrize
	createErr error
}

func newFakePrizes(prizes ...*domain.MemberPrize) *fakePrizes {
	f := &fakePrizes{rows: make(map[string]*domain.MemberPrize)}
	for _, p := range prizes {
		f.rows[p.ID] = p
	}
	return f
}

func (f *fakePrizes) Create(_ context.Context, p *domain.MemberPrize) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *p
	f.rows[p.ID] = &cp
	return nil
}

func (f *fakePrizes) GetByID(_ context.Context, id string) (*domain.MemberPrize, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePrizes) UpdateStatus(_ context.Context, p *domain.MemberPrize, from domain.PrizeStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.rows[p.ID]
	if !ok || stored.Status != from {
		return repository.ErrStaleStatus
	}
	stored.Status = p.Status
	stored.Metadata = p.Metadata
	stored.UpdatedAt = time.Now()
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

func (f *fakePrizes) BeginFulfilment(_ context.Context, p *domain.MemberPrize, staleBefore time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.rows[p.ID]
	if !ok {
		return repository.ErrStaleStatus
	}
	abandoned := stored.Status == domain.PrizeStatusProcessing && stored.UpdatedAt.Before(staleBefore)
	if stored.Status != domain.PrizeStatusPending && !abandoned {
		return repository.ErrStaleStatus
	}
	stored.Status = domain.PrizeStatusProcessing
	stored.UpdatedAt = time.Now()
	p.Status = stored.Status
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

func (f *fakePrizes) ListByMember(_ context.Context, memberID string) ([]*domain.MemberPrize, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.MemberPrize, 0)
	for _, p := range f.rows {
		if p.MemberID == memberID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakePrizes) List(_ context.Context, filter repository.MemberPrizeFilter) ([]*domain.MemberPrize, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.MemberPrize, 0)
	for _, p := range f.rows {
		if filter.CompanyID != "" && p.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return paginate(out, filter.Page, filter.Limit), len(out), nil
}

func (f *fakePrizes) CountByStatus(_ context.Context, companyID string) ([]domain.PrizeStatusCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[domain.PrizeStatus]int64)
	for _, p := range f.rows {
		if companyID == "" || p.CompanyID == companyID {
			counts[p.Status]++
		}
	}
	out := make([]domain.PrizeStatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, domain.PrizeStatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

// --- companies ---

type fakeCompanies struct {
	mu   sync.Mutex
	rows map[string]*domain.Company
}

func newFakeCompanies(companies ...*domain.Company) *fakeCompanies {
	f := &fakeCompanies{rows: make(map[string]*domain.Company)}
	for _, c := range companies {
		f.rows[c.ID] = c
	}
	return f
}

func (f *fakeCompanies) Create(_ context.Context, c *domain.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.rows {
		if other.Slug == c.Slug {
			return errUnique
		}
	}
	cp := *c
	f.rows[c.ID] = &cp
	return nil
}

func (f *fakeCompanies) GetByID(_ context.Context, id string) (*domain.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.rows[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeCompanies) GetBySlug(_ context.Context, slug string) (*domain.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.rows {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCompanies) List(_ context.Context, filter repository.CompanyFilter) ([]*domain.Company, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Company, 0)
	for _, c := range f.rows {
		if filter.IDs != nil {
			allowed := false
			for _, id := range filter.IDs {
				allowed = allowed || id == c.ID
			}
			if !allowed {
				continue
			}
		}
		if filter.IsActive != nil && c.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Search)) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, filter.Page, filter.Limit), len(out), nil
}

func (f *fakeCompanies) Update(_ context.Context, c *domain.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.rows[c.ID] = &cp
	return nil
}

func (f *fakeCompanies) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeCompanies) ExistsBySlug(_ context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.rows {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// --- roles and permissions ---

type fakeRoles struct {
	mu          sync.Mutex
	rows        map[string]*domain.Role
	permissions *fakePermissions
}

func newFakeRoles(permissions *fakePermissions, roles ...*domain.Role) *fakeRoles {
	f := &fakeRoles{rows: make(map[string]*domain.Role), permissions: permissions}
	for _, r := range roles {
		f.rows[r.ID] = r
	}
	return f
}

func (f *fakeRoles) Create(_ context.Context, r *domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.rows {
		if other.Slug == r.Slug {
			return errUnique
		}
	}
	cp := *r
	f.rows[r.ID] = &cp
	return nil
}

func (f *fakeRoles) GetByID(_ context.Context, id string) (*domain.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRoles) GetBySlug(_ context.Context, slug string) (*domain.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Slug == slug {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRoles) List(_ context.Context) ([]*domain.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Role, 0, len(f.rows))
	for _, r := range f.rows {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level > out[j].Level })
	return out, nil
}

func (f *fakeRoles) Update(_ context.Context, r *domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.rows[r.ID]
	if !ok {
		return nil
	}
	cp := *r
	cp.Permissions = stored.Permissions
	f.rows[r.ID] = &cp
	return nil
}

func (f *fakeRoles) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeRoles) SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	perms, err := f.permissions.GetByIDs(ctx, permissionIDs)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rows[roleID]; ok {
		r.Permissions = perms
	}
	return nil
}

type fakePermissions struct {
	mu   sync.Mutex
	rows map[string]*domain.Permission
}

func newFakePermissions(perms ...*domain.Permission) *fakePermissions {
	f := &fakePermissions{rows: make(map[string]*domain.Permission)}
	for _, p := range perms {
		f.rows[p.ID] = p
	}
	return f
}

func (f *fakePermissions) Create(_ context.Context, p *domain.Permission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.rows {
		if other.Slug == p.Slug {
			return errUnique
		}
	}
	cp := *p
	f.rows[p.ID] = &cp
	return nil
}

func (f *fakePermissions) GetByID(_ context.Context, id string) (*domain.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePermissions) GetBySlug(_ context.Context, slug string) (*domain.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePermissions) GetByIDs(_ context.Context, ids []string) ([]*domain.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Permission, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.rows[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakePermissions) List(_ context.Context) ([]*domain.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Permission, 0, len(f.rows))
	for _, p := range f.rows {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (f *fakePermissions) Update(_ context.Context, p *domain.Permission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.rows {
		if other.ID != p.ID && other.Slug == p.Slug {
			return errUnique
		}
	}
	cp := *p
	f.rows[p.ID] = &cp
	return nil
}

func (f *fakePermissions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

// --- users and memberships ---

type fakeUsers struct {
	mu   sync.Mutex
	rows map[string]*domain.User
}

func newFakeUsers(users ...*domain.User) *fakeUsers {
	f := &fakeUsers{rows: make(map[string]*domain.User)}
	for _, u := range users {
		f.rows[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.rows {
		if other.EmailHash == u.EmailHash {
			return errUnique
		}
	}
	cp := *u
	f.rows[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.rows[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUsers) GetByEmailHash(_ context.Context, hash string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.EmailHash == hash {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) List(_ context.Context, _ string, page, limit int) ([]*domain.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.User, 0, len(f.rows))
	for _, u := range f.rows {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page, limit), len(out), nil
}

func (f *fakeUsers) Update(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.rows[u.ID] = &cp
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

type fakeMemberships struct {
	mu        sync.Mutex
	rows      []*domain.UserCompany
	companies *fakeCompanies
	roles     *fakeRoles
}

func newFakeMemberships(companies *fakeCompanies, roles *fakeRoles, rows ...*domain.UserCompany) *fakeMemberships {
	return &fakeMemberships{rows: rows, companies: companies, roles: roles}
}

func (f *fakeMemberships) Create(_ context.Context, uc *domain.UserCompany) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.rows {
		if other.UserID == uc.UserID && other.CompanyID == uc.CompanyID {
			return errUnique
		}
	}
	cp := *uc
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeMemberships) Get(_ context.Context, userID, companyID string) (*domain.UserCompany, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, uc := range f.rows {
		if uc.UserID == userID && uc.CompanyID == companyID {
			cp := *uc
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeMemberships) ListByUser(ctx context.Context, userID string) ([]*domain.UserCompany, error) {
	f.mu.Lock()
	rows := make([]*domain.UserCompany, 0)
	for _, uc := range f.rows {
		if uc.UserID == userID && uc.IsActive {
			cp := *uc
			rows = append(rows, &cp)
		}
	}
	f.mu.Unlock()

	for _, uc := range rows {
		if f.companies != nil {
			uc.Company, _ = f.companies.GetByID(ctx, uc.CompanyID)
		}
		if f.roles != nil {
			uc.Role, _ = f.roles.GetByID(ctx, uc.RoleID)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].IsPrimary && !rows[j].IsPrimary })
	return rows, nil
}

func (f *fakeMemberships) Delete(_ context.Context, userID, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, uc := range f.rows {
		if uc.UserID == userID && uc.CompanyID == companyID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrMembershipNotFound
}

func (f *fakeMemberships) UpdateRole(_ context.Context, userID, companyID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, uc := range f.rows {
		if uc.UserID == userID && uc.CompanyID == companyID {
			uc.RoleID = roleID
			return nil
		}
	}
	return repository.ErrMembershipNotFound
}

func (f *fakeMemberships) SetPrimary(_ context.Context, userID, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := false
	for _, uc := range f.rows {
		if uc.UserID != userID {
			continue
		}
		uc.IsPrimary = uc.CompanyID == companyID
		found = found || uc.IsPrimary
	}
	if !found {
		return repository.ErrMembershipNotFound
	}
	return nil
}

// --- settings and audit ---

type fakeSettings struct {
	mu   sync.Mutex
	rows map[string]*domain.SystemSetting
}

func newFakeSettings(values map[string]interface{}) *fakeSettings {
	f := &fakeSettings{rows: make(map[string]*domain.SystemSetting)}
	for k, v := range values {
		f.rows[k] = &domain.SystemSetting{Key: k, Value: v}
	}
	return f
}

func (f *fakeSettings) Get(_ context.Context, key string) (*domain.SystemSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.rows[key]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeSettings) Set(_ context.Context, s *domain.SystemSetting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.rows[s.Key] = &cp
	return nil
}

func (f *fakeSettings) List(_ context.Context) ([]*domain.SystemSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.SystemSetting, 0, len(f.rows))
	for _, s := range f.rows {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

type fakeAuditLogs struct {
	mu   sync.Mutex
	rows []*domain.AuditLog
	// lastFilter records the most recent List call
	lastFilter repository.AuditLogFilter
}

func (f *fakeAuditLogs) Create(_ context.Context, log *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, log)
	return nil
}

func (f *fakeAuditLogs) List(_ context.Context, filter repository.AuditLogFilter) ([]*domain.AuditLog, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	out := make([]*domain.AuditLog, 0)
	for _, log := range f.rows {
		if filter.Module != "" && log.Module != filter.Module {
			continue
		}
		out = append(out, log)
	}
	return paginate(out, filter.Page, filter.Limit), len(out), nil
}

func (f *fakeAuditLogs) GetByID(_ context.Context, id string) (*domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, log := range f.rows {
		if log.ID == id {
			return log, nil
		}
	}
	return nil, nil
}

func (f *fakeAuditLogs) Options(_ context.Context, _ repository.AuditLogScope) ([]string, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	modules, actions := map[string]bool{}, map[string]bool{}
	for _, log := range f.rows {
		modules[log.Module] = true
		actions[log.Action] = true
	}
	return sortedKeys(modules), sortedKeys(actions), nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// auditSpy collects explicit audit entries
type auditSpy struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (a *auditSpy) Record(_ context.Context, entry *domain.AuditLog) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *auditSpy) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- games, instances and scores ---

type fakeGames struct {
	mu        sync.Mutex
	rows      map[string]*domain.Game
	instances *fakeGameInstances
}

func newFakeGames(games ...*domain.Game) *fakeGames {
	f := &fakeGames{rows: make(map[string]*domain.Game)}
	for _, g := range games {
		f.rows[g.ID] = g
	}
	return f
}

func (f *fakeGames) Create(_ context.Context, g *domain.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.rows {
		if other.Slug == g.Slug {
			return errUnique
		}
	}
	cp := *g
	f.rows[g.ID] = &cp
	return nil
}

func (f *fakeGames) GetByID(_ context.Context, id string) (*domain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.rows[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeGames) GetBySlug(_ context.Context, slug string) (*domain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.rows {
		if g.Slug == slug {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeGames) List(_ context.Context, activeOnly bool) ([]*domain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Game, 0)
	for _, g := range f.rows {
		if activeOnly && !g.IsActive {
			continue
		}
		cp := *g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (f *fakeGames) Update(_ context.Context, g *domain.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, other := range f.rows {
		if id != g.ID && other.Slug == g.Slug {
			return errUnique
		}
	}
	cp := *g
	f.rows[g.ID] = &cp
	return nil
}

func (f *fakeGames) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeGames) CountInstances(_ context.Context, id string) (int, error) {
	if f.instances == nil {
		return 0, nil
	}
	f.instances.mu.Lock()
	defer f.instances.mu.Unlock()
	n := 0
	for _, i := range f.instances.rows {
		if i.GameID == id {
			n++
		}
	}
	return n, nil
}

// fakeGameInstances joins reads against games the way the SQL does
type fakeGameInstances struct {
	mu    sync.Mutex
	rows  map[string]*domain.GameInstance
	games *fakeGames
}

func newFakeGameInstances(games *fakeGames, instances ...*domain.GameInstance) *fakeGameInstances {
	f := &fakeGameInstances{rows: make(map[string]*domain.GameInstance), games: games}
	games.instances = f
	for _, i := range instances {
		f.rows[i.ID] = i
	}
	return f
}

func (f *fakeGameInstances) joined(i *domain.GameInstance) *domain.GameInstance {
	cp := *i
	cp.Game, _ = f.games.GetByID(context.Background(), i.GameID)
	return &cp
}

func (f *fakeGameInstances) Create(_ context.Context, i *domain.GameInstance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.rows {
		if other.CompanyID == i.CompanyID && other.Slug == i.Slug {
			return errUnique
		}
	}
	cp := *i
	cp.Game = nil
	f.rows[i.ID] = &cp
	return nil
}

func (f *fakeGameInstances) GetByID(_ context.Context, id string) (*domain.GameInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.rows[id]; ok {
		return f.joined(i), nil
	}
	return nil, nil
}

func (f *fakeGameInstances) GetBySlug(_ context.Context, companyID, slug string) (*domain.GameInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.rows {
		if i.CompanyID == companyID && i.Slug == slug {
			return f.joined(i), nil
		}
	}
	return nil, nil
}

func (f *fakeGameInstances) List(_ context.Context, filter repository.GameInstanceFilter) ([]*domain.GameInstance, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.GameInstance, 0)
	for _, i := range f.rows {
		if filter.CompanyID != "" && i.CompanyID != filter.CompanyID {
			continue
		}
		out = append(out, f.joined(i))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Slug < out[b].Slug })
	return paginate(out, filter.Page, filter.Limit), len(out), nil
}

func (f *fakeGameInstances) Update(_ context.Context, i *domain.GameInstance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, other := range f.rows {
		if id != i.ID && other.CompanyID == i.CompanyID && other.Slug == i.Slug {
			return errUnique
		}
	}
	cp := *i
	cp.Game = nil
	f.rows[i.ID] = &cp
	return nil
}

func (f *fakeGameInstances) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

type fakeScores struct {
	mu   sync.Mutex
	rows []*domain.Score
}

func (f *fakeScores) Create(_ context.Context, s *domain.Score) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeScores) ListByMember(_ context.Context, memberID string, limit int) ([]*domain.Score, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Score, 0)
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].MemberID == memberID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

// --- collaborators ---

type stubCreditor struct {
	mu    sync.Mutex
	calls []int64
	err   error

	// when set, each call signals entered and then waits for release
	entered chan struct{}
	release chan struct{}
}

func (s *stubCreditor) UpdatePoints(_ context.Context, memberID string, delta int64) (*domain.Member, error) {
	s.mu.Lock()
	s.calls = append(s.calls, delta)
	s.mu.Unlock()

	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Member{ID: memberID, PointsBalance: delta}, nil
}

func (s *stubCreditor) credited() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.calls...)
}

type stubWebhook struct {
	url     string
	payload interface{}
	resp    *client.WebhookResponse
	err     error
}

func (s *stubWebhook) Post(_ context.Context, url string, payload interface{}) (*client.WebhookResponse, error) {
	s.url = url
	s.payload = payload
	if s.err != nil {
		return nil, s.err
	}
	if s.resp == nil {
		return &client.WebhookResponse{StatusCode: 200}, nil
	}
	return s.resp, nil
}

// stubStrategy returns a fixed result and remembers what it ran
type stubStrategy struct {
	result StrategyResult
	ran    []*domain.PrizeType
	input  map[string]interface{}

	// before runs first when set
	before func()
}

func (s *stubStrategy) Execute(_ context.Context, _ string, prizeType *domain.PrizeType, _ float64, metadata map[string]interface{}) StrategyResult {
	if s.before != nil {
		s.before()
	}
	s.ran = append(s.ran, prizeType)
	s.input = metadata
	return s.result
}

var (
	_ repository.PrizeTypeRepository         = (*fakePrizeTypes)(nil)
	_ repository.MemberRepository            = (*fakeMembers)(nil)
	_ repository.CreditTransactionRepository = (*fakeCredits)(nil)
	_ repository.MemberPrizeRepository       = (*fakePrizes)(nil)
	_ repository.CompanyRepository           = (*fakeCompanies)(nil)
	_ repository.RoleRepository              = (*fakeRoles)(nil)
	_ repository.PermissionRepository        = (*fakePermissions)(nil)
	_ repository.UserRepository              = (*fakeUsers)(nil)
	_ repository.UserCompanyRepository       = (*fakeMemberships)(nil)
	_ repository.SettingRepository           = (*fakeSettings)(nil)
	_ repository.AuditLogRepository          = (*fakeAuditLogs)(nil)
	_ repository.GameRepository              = (*fakeGames)(nil)
	_ repository.GameInstanceRepository      = (*fakeGameInstances)(nil)
	_ repository.ScoreRepository             = (*fakeScores)(nil)
	_ PointsCreditor                         = (*stubCreditor)(nil)
	_ client.WebhookClient                   = (*stubWebhook)(nil)
	_ PrizeStrategyExecutor                  = (*stubStrategy)(nil)
)

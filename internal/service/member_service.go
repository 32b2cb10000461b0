package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/database"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/encryption"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/kafka"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/masking"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/middleware"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberExists        = errors.New("member with this external ID already exists")
	ErrMemberAlreadyLinked = errors.New("member is already linked to an account")
	ErrMemberHasHistory    = errors.New("member has history")
)

const (
	memberHistoryLimit   = 100
	defaultWebAppURL     = "http://localhost:3102"
	permViewSensitive    = "members:view_sensitive"
	auditModuleMember    = "Member"
	guestUsername        = "Guest"
	externalUsernameBase = "player_"
)

// MemberService manages members, their balances and admin member operations
type MemberService interface {
	// FindOrCreateExternal returns the company member with externalID, creating it on first login
	FindOrCreateExternal(ctx context.Context, companyID, externalID, username string) (*domain.Member, error)
	// CreateAnonymous creates a guest member
	CreateAnonymous(ctx context.Context, companyID string) (*domain.Member, error)
	FindByID(ctx context.Context, id string) (*domain.Member, error)
	// UpdatePoints adds delta to the member balance atomically
	UpdatePoints(ctx context.Context, id string, delta int64) (*domain.Member, error)
	// LinkExternalAccount turns a guest into an external account, merging into an existing one
	LinkExternalAccount(ctx context.Context, guestID, externalID, username string) (*domain.Member, error)
	// IssueToken signs a member token
	IssueToken(member *domain.Member, impersonated bool) (string, error)
	// RecordLogin appends to the member login history
	RecordLogin(ctx context.Context, entry *domain.LoginHistory)

	List(ctx context.Context, actor *Actor, query *dto.ListMembersQuery) (*dto.PageResponse[*dto.MemberResponse], error)
	Get(ctx context.Context, actor *Actor, id string) (*dto.MemberResponse, error)
	Create(ctx context.Context, actor *Actor, req *dto.CreateMemberRequest) (*dto.MemberResponse, error)
	Update(ctx context.Context, actor *Actor, id string, req *dto.UpdateMemberRequest) (*dto.MemberResponse, error)
	// SetStatus sets is_active, or flips it when isActive is nil
	SetStatus(ctx context.Context, actor *Actor, id string, isActive *bool) (*dto.MemberResponse, error)
	ResetPassword(ctx context.Context, actor *Actor, id, password string) error
	Impersonate(ctx context.Context, actor *Actor, id, referer string) (*dto.ImpersonateResponse, error)
	AdjustCredit(ctx context.Context, actor *Actor, id string, req *dto.AdjustCreditRequest) (*dto.AdjustCreditResponse, error)
	CreditHistory(ctx context.Context, actor *Actor, id string) ([]*domain.CreditTransaction, error)
	AllCreditHistory(ctx context.Context, actor *Actor, query *dto.CreditHistoryQuery) (*dto.PageResponse[*domain.CreditTransaction], error)
	LoginHistory(ctx context.Context, actor *Actor, id string) ([]*domain.LoginHistory, error)
	Delete(ctx context.Context, actor *Actor, id string) error
}

// MemberServiceConfig contains configuration for the member service
type MemberServiceConfig struct {
	JWTSecret      string
	MemberTokenTTL time.Duration
	BcryptCost     int
	WebAppURL      string
}

type memberService struct {
	members      repository.MemberRepository
	transactions repository.CreditTransactionRepository
	prizes       repository.MemberPrizeRepository
	logins       repository.LoginHistoryRepository
	settings     repository.SettingRepository
	audit        AuditRecorder
	events       kafka.Publisher
	config       *MemberServiceConfig
}

// NewMemberService creates a new MemberService
func NewMemberService(
	members repository.MemberRepository,
	transactions repository.CreditTransactionRepository,
	prizes repository.MemberPrizeRepository,
	logins repository.LoginHistoryRepository,
	settings repository.SettingRepository,
	audit AuditRecorder,
	events kafka.Publisher,
	config *MemberServiceConfig,
) MemberService {
	if config == nil {
		config = &MemberServiceConfig{}
	}
	if config.MemberTokenTTL <= 0 {
		config.MemberTokenTTL = 72 * time.Hour
	}
	if events == nil {
		events = kafka.NewNoOpPublisher()
	}
	return &memberService{
		members:      members,
		transactions: transactions,
		prizes:       prizes,
		logins:       logins,
		settings:     settings,
		audit:        audit,
		events:       events,
		config:       config,
	}
}

func (s *memberService) FindOrCreateExternal(ctx context.Context, companyID, externalID, username string) (*domain.Member, error) {
	member, err := s.members.GetByExternalID(ctx, companyID, externalID)
	if err != nil {
		return nil, err
	}

	if member == nil {
		if username == "" {
			username = externalUsernameBase + lastChars(externalID, 4)
		}
		now := time.Now()
		member = &domain.Member{
			ID:         uuid.New().String(),
			CompanyID:  companyID,
			ExternalID: &externalID,
			Username:   username,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.members.Create(ctx, member); err != nil {
			if database.IsUniqueViolation(err) {
				// lost a race with a concurrent first login
				return s.members.GetByExternalID(ctx, companyID, externalID)
			}
			return nil, err
		}
		logger.Get().InfoContext(ctx, "external member created",
			zap.String("member_id", member.ID), zap.String("company_id", companyID))
		return member, nil
	}

	if username != "" && member.Username != username {
		member.Username = username
		member.UpdatedAt = time.Now()
		if err := s.members.Update(ctx, member); err != nil {
			return nil, err
		}
	}
	return member, nil
}

func (s *memberService) CreateAnonymous(ctx context.Context, companyID string) (*domain.Member, error) {
	now := time.Now()
	member := &domain.Member{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Username:    guestUsername,
		IsAnonymous: true,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *memberService) FindByID(ctx context.Context, id string) (*domain.Member, error) {
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, detail(ErrMemberNotFound, "Member with ID %s not found", id)
	}
	return member, nil
}

func (s *memberService) UpdatePoints(ctx context.Context, id string, delta int64) (*domain.Member, error) {
	ctx, span := telemetry.StartSpan(ctx, "member.update_points")
	defer span.End()
	span.SetAttributes(telemetry.MemberIDAttr(id))

	balance, err := s.members.AddPoints(ctx, id, delta)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil, detail(ErrMemberNotFound, "Member with ID %s not found", id)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	member, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	member.PointsBalance = balance

	s.publish(ctx, dto.TopicPointsCredited, &dto.PointsCreditedEvent{
		MemberID:     id,
		CompanyID:    member.CompanyID,
		Amount:       delta,
		BalanceAfter: balance,
		Source:       domain.CreditTypeGameWin,
		CreditedAt:   time.Now(),
	})
	return member, nil
}

func (s *memberService) LinkExternalAccount(ctx context.Context, guestID, externalID, username string) (*domain.Member, error) {
	guest, err := s.FindByID(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if !guest.IsAnonymous {
		return nil, detail(ErrMemberAlreadyLinked, "Member is already linked to an account")
	}

	existing, err := s.members.GetByExternalID(ctx, guest.CompanyID, externalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		merged, err := s.members.MergeGuest(ctx, guest.ID, existing.ID)
		if err != nil {
			return nil, err
		}
		logger.Get().InfoContext(ctx, "guest merged into external member",
			zap.String("guest_id", guest.ID), zap.String("member_id", merged.ID),
			zap.Int64("points", guest.PointsBalance))
		return merged, nil
	}

	guest.ExternalID = &externalID
	guest.IsAnonymous = false
	if username != "" {
		guest.Username = username
	}
	guest.UpdatedAt = time.Now()
	if err := s.members.Update(ctx, guest); err != nil {
		return nil, err
	}
	return guest, nil
}

func (s *memberService) IssueToken(member *domain.Member, impersonated bool) (string, error) {
	claims := &middleware.Claims{
		Role:           middleware.RoleMember,
		CompanyID:      member.CompanyID,
		IsImpersonated: impersonated,
	}
	claims.Subject = member.ID
	if member.ExternalID != nil {
		claims.ExternalID = *member.ExternalID
	}
	return middleware.GenerateToken(s.config.JWTSecret, claims, s.config.MemberTokenTTL)
}

func (s *memberService) RecordLogin(ctx context.Context, entry *domain.LoginHistory) {
	if s.logins == nil {
		return
	}
	entry.SubjectType = domain.LoginSubjectMember
	if err := s.logins.Record(ctx, entry); err != nil {
		logger.Get().WarnContext(ctx, "failed to record member login", zap.String("member_id", entry.SubjectID), zap.Error(err))
	}
}

func (s *memberService) List(ctx context.Context, actor *Actor, query *dto.ListMembersQuery) (*dto.PageResponse[*dto.MemberResponse], error) {
	query.SetDefaults()

	companyID, err := actor.ScopeCompany(query.CompanyID)
	if err != nil {
		return nil, err
	}

	members, total, err := s.members.List(ctx, repository.MemberFilter{
		CompanyID:  companyID,
		Username:   query.Username,
		ExternalID: query.ExternalID,
		Page:       query.Page,
		Limit:      query.Limit,
	})
	if err != nil {
		return nil, err
	}

	items := make([]*dto.MemberResponse, 0, len(members))
	for _, m := range members {
		items = append(items, toMemberResponse(m, false))
	}
	return dto.NewPageResponse(items, total, query.Page, query.Limit), nil
}

func (s *memberService) Get(ctx context.Context, actor *Actor, id string) (*dto.MemberResponse, error) {
	member, err := s.accessibleMember(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return toMemberResponse(member, canViewSensitive(actor)), nil
}

func (s *memberService) Create(ctx context.Context, actor *Actor, req *dto.CreateMemberRequest) (*dto.MemberResponse, error) {
	companyID := req.CompanyID
	if !actor.IsSuperAdmin {
		companyID = actor.CompanyID
	}
	if companyID == "" {
		return nil, invalid("companyId is required")
	}

	now := time.Now()
	member := &domain.Member{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Username:  req.Username,
		IsActive:  true,
		Email:     req.Email,
		Phone:     req.Phone,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.ExternalID != "" {
		externalID := req.ExternalID
		member.ExternalID = &externalID
	}
	if req.Password != "" {
		hash, err := encryption.HashPassword(req.Password, s.config.BcryptCost)
		if err != nil {
			return nil, err
		}
		member.PasswordHash = hash
	}

	if err := s.members.Create(ctx, member); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrMemberExists
		}
		return nil, err
	}

	s.recordAudit(ctx, actor, companyID, "CREATE",
		map[string]interface{}{"username": req.Username, "externalId": req.ExternalID},
		map[string]interface{}{"id": member.ID})

	return toMemberResponse(member, canViewSensitive(actor)), nil
}

func (s *memberService) Update(ctx context.Context, actor *Actor, id string, req *dto.UpdateMemberRequest) (*dto.MemberResponse, error) {
	member, err := s.accessibleMember(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		member.Username = *req.Username
	}
	if req.ExternalID != nil {
		if *req.ExternalID == "" {
			member.ExternalID = nil
		} else {
			externalID := *req.ExternalID
			member.ExternalID = &externalID
		}
	}
	if req.Email != nil {
		member.Email = *req.Email
	}
	if req.Phone != nil {
		member.Phone = *req.Phone
	}
	if req.Metadata != nil {
		member.Metadata = *req.Metadata
	}
	if req.IsActive != nil {
		member.IsActive = *req.IsActive
	}
	member.UpdatedAt = time.Now()

	if err := s.members.Update(ctx, member); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrMemberExists
		}
		return nil, err
	}

	s.recordAudit(ctx, actor, member.CompanyID, "UPDATE", req, map[string]interface{}{"id": id})
	return toMemberResponse(member, canViewSensitive(actor)), nil
}

func (s *memberService) SetStatus(ctx context.Context, actor *Actor, id string, isActive *bool) (*dto.MemberResponse, error) {
	member, err := s.accessibleMember(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if isActive != nil {
		member.IsActive = *isActive
	} else {
		member.IsActive = !member.IsActive
	}
	member.UpdatedAt = time.Now()

	if err := s.members.Update(ctx, member); err != nil {
		return nil, err
	}
	return toMemberResponse(member, false), nil
}

func (s *memberService) ResetPassword(ctx context.Context, actor *Actor, id, password string) error {
	if password == "" {
		return invalid("Password is required")
	}

	member, err := s.accessibleMember(ctx, actor, id)
	if err != nil {
		return err
	}

	hash, err := encryption.HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return err
	}
	member.PasswordHash = hash
	member.UpdatedAt = time.Now()

	if err := s.members.Update(ctx, member); err != nil {
		return err
	}

	s.recordAudit(ctx, actor, member.CompanyID, "RESET_PASSWORD",
		map[string]interface{}{"id": id}, map[string]interface{}{"success": true})
	return nil
}

func (s *memberService) Impersonate(ctx context.Context, actor *Actor, id, referer string) (*dto.ImpersonateResponse, error) {
	member, err := s.accessibleMember(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	token, err := s.IssueToken(member, true)
	if err != nil {
		return nil, err
	}

	logger.Get().InfoContext(ctx, "member impersonated",
		zap.String("member_id", member.ID), zap.String("actor_id", actor.UserID))

	return &dto.ImpersonateResponse{
		AccessToken: token,
		RedirectURL: s.webAppURL(ctx, referer) + "/login",
	}, nil
}

// webAppURL resolves the player web app base URL from settings, then config, then the admin referer
func (s *memberService) webAppURL(ctx context.Context, referer string) string {
	if s.settings != nil {
		if setting, err := s.settings.Get(ctx, domain.SettingWebAppURL); err == nil && setting != nil {
			if v, ok := setting.Value.(string); ok && v != "" {
				return strings.TrimRight(v, "/")
			}
		}
	}
	if s.config.WebAppURL != "" {
		return strings.TrimRight(s.config.WebAppURL, "/")
	}
	if derived := webAppURLFromReferer(referer); derived != "" {
		return derived
	}
	return defaultWebAppURL
}

// webAppURLFromReferer maps the admin console origin to the player app origin.
// Local admin ports 3101 and 9527 map to 3102, other local ports to port+1, and
// remote hosts swap an "admin." prefix for "game.".
func webAppURLFromReferer(referer string) string {
	if referer == "" {
		return ""
	}
	u, err := url.Parse(referer)
	if err != nil || u.Host == "" {
		return ""
	}

	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" {
		port := u.Port()
		if port == "" {
			port = "3101"
		}
		if port == "3101" || port == "9527" {
			return u.Scheme + "://" + host + ":3102"
		}
		n, err := strconv.Atoi(port)
		if err != nil {
			return ""
		}
		return u.Scheme + "://" + host + ":" + strconv.Itoa(n+1)
	}
	return u.Scheme + "://" + strings.Replace(u.Host, "admin.", "game.", 1)
}

func (s *memberService) AdjustCredit(ctx context.Context, actor *Actor, id string, req *dto.AdjustCreditRequest) (*dto.AdjustCreditResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "member.adjust_credit")
	defer span.End()

	if req.Amount == 0 {
		return nil, invalid("amount must not be zero")
	}

	member, err := s.accessibleMember(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	txType := req.Type
	if txType == "" {
		txType = domain.CreditTypeManualAdjustment
	}
	tx := &domain.CreditTransaction{
		MemberID: member.ID,
		Amount:   req.Amount,
		Type:     txType,
		Reason:   req.Reason,
	}
	if actor.UserID != "" {
		adminID := actor.UserID
		tx.AdminUserID = &adminID
	}

	updated, err := s.members.AdjustBalance(ctx, tx)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil, detail(ErrMemberNotFound, "Member not found")
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.recordAudit(ctx, actor, member.CompanyID, "CREDIT_ADJUSTMENT",
		map[string]interface{}{"amount": req.Amount, "reason": req.Reason},
		map[string]interface{}{"balanceBefore": tx.BalanceBefore, "balanceAfter": tx.BalanceAfter})

	s.publish(ctx, dto.TopicPointsCredited, &dto.PointsCreditedEvent{
		MemberID:     member.ID,
		CompanyID:    member.CompanyID,
		Amount:       req.Amount,
		BalanceAfter: tx.BalanceAfter,
		Source:       txType,
		ActorID:      actor.UserID,
		CreditedAt:   tx.CreatedAt,
	})

	return &dto.AdjustCreditResponse{
		Member:      toMemberResponse(updated, canViewSensitive(actor)),
		Transaction: tx,
	}, nil
}

func (s *memberService) CreditHistory(ctx context.Context, actor *Actor, id string) ([]*domain.CreditTransaction, error) {
	if _, err := s.accessibleMember(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.transactions.ListByMember(ctx, id, memberHistoryLimit)
}

func (s *memberService) AllCreditHistory(ctx context.Context, actor *Actor, query *dto.CreditHistoryQuery) (*dto.PageResponse[*domain.CreditTransaction], error) {
	query.SetDefaults()

	companyID, err := actor.ScopeCompany(query.CompanyID)
	if err != nil {
		return nil, err
	}

	items, total, err := s.transactions.List(ctx, repository.CreditTransactionFilter{
		CompanyID: companyID,
		MemberID:  query.MemberID,
		Type:      query.Type,
		Page:      query.Page,
		Limit:     query.Limit,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewPageResponse(items, total, query.Page, query.Limit), nil
}

func (s *memberService) LoginHistory(ctx context.Context, actor *Actor, id string) ([]*domain.LoginHistory, error) {
	if _, err := s.accessibleMember(ctx, actor, id); err != nil {
		return nil, err
	}
	if s.logins == nil {
		return []*domain.LoginHistory{}, nil
	}
	return s.logins.ListBySubject(ctx, domain.LoginSubjectMember, id, memberHistoryLimit)
}

func (s *memberService) Delete(ctx context.Context, actor *Actor, id string) error {
	member, err := s.accessibleMember(ctx, actor, id)
	if err != nil {
		return err
	}

	txs, err := s.transactions.ListByMember(ctx, id, 1)
	if err != nil {
		return err
	}
	prizes, err := s.prizes.ListByMember(ctx, id)
	if err != nil {
		return err
	}
	if len(txs) > 0 || len(prizes) > 0 {
		return detail(ErrMemberHasHistory, "Cannot delete member with existing prizes or transactions")
	}

	if err := s.members.Delete(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, actor, member.CompanyID, "DELETE",
		map[string]interface{}{"id": id, "username": member.Username},
		map[string]interface{}{"success": true})
	return nil
}

// accessibleMember loads a member and enforces tenant isolation
func (s *memberService) accessibleMember(ctx context.Context, actor *Actor, id string) (*domain.Member, error) {
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, detail(ErrMemberNotFound, "Member not found")
	}
	if !actor.CanAccessCompany(member.CompanyID) {
		return nil, denied("You do not have access to this member")
	}
	return member, nil
}

func (s *memberService) recordAudit(ctx context.Context, actor *Actor, companyID, action string, payload, result interface{}) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, &domain.AuditLog{
		UserID:    optional(actor.UserID),
		UserName:  optional(actor.UserName),
		CompanyID: optional(companyID),
		Module:    auditModuleMember,
		Action:    action,
		Payload:   payload,
		Result:    result,
	})
}

func (s *memberService) publish(ctx context.Context, topic string, event kafka.Event) {
	if err := s.events.Publish(ctx, topic, event); err != nil {
		logger.Get().WarnContext(ctx, "failed to publish event", zap.String("topic", topic), zap.Error(err))
	}
}

func canViewSensitive(actor *Actor) bool {
	return actor.IsSuperAdmin || actor.HasExactPermission(permViewSensitive)
}

func toMemberResponse(m *domain.Member, sensitive bool) *dto.MemberResponse {
	resp := dto.NewMemberResponse(m)
	if !sensitive {
		resp.Email = masking.Email(resp.Email)
		resp.Phone = masking.Phone(resp.Phone)
	}
	return resp
}

func lastChars(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

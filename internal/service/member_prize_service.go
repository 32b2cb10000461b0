package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/kafka"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fulfilmentLease is how long a prize may stay processing before a retry may
// take it over. It must exceed the webhook timeout.
const fulfilmentLease = 10 * time.Minute

var (
	ErrMemberPrizeNotFound = errors.New("member prize not found")
	ErrInvalidTransition   = errors.New("invalid prize status transition")
)

// MemberPrizeService records won prizes and drives their fulfilment
type MemberPrizeService interface {
	// AwardPrize records a win and runs the prize type's strategy
	AwardPrize(ctx context.Context, req *dto.AwardPrizeRequest) (*domain.MemberPrize, error)
	// ListMine returns the calling member's prizes
	ListMine(ctx context.Context, memberID string) ([]*domain.MemberPrize, error)
	// Claim moves the member's own pending prize to claimed
	Claim(ctx context.Context, memberID, prizeID string) (*domain.MemberPrize, error)

	List(ctx context.Context, actor *Actor, query *dto.ListMemberPrizesQuery) (*dto.PageResponse[*domain.MemberPrize], error)
	ListByMember(ctx context.Context, actor *Actor, memberID string) ([]*domain.MemberPrize, error)
	UpdateStatus(ctx context.Context, actor *Actor, id string, req *dto.UpdatePrizeStatusRequest) (*domain.MemberPrize, error)
	// Retry re-runs the strategy of a pending prize
	Retry(ctx context.Context, actor *Actor, id string) (*domain.MemberPrize, error)
	Stats(ctx context.Context, actor *Actor, companyID string) (*dto.PrizeStatsResponse, error)
}

type memberPrizeService struct {
	prizes     repository.MemberPrizeRepository
	members    repository.MemberRepository
	prizeTypes PrizeTypeService
	strategy   PrizeStrategyExecutor
	events     kafka.Publisher
}

// NewMemberPrizeService creates a new MemberPrizeService
func NewMemberPrizeService(
	prizes repository.MemberPrizeRepository,
	members repository.MemberRepository,
	prizeTypes PrizeTypeService,
	strategy PrizeStrategyExecutor,
	events kafka.Publisher,
) MemberPrizeService {
	if events == nil {
		events = kafka.NewNoOpPublisher()
	}
	return &memberPrizeService{
		prizes:     prizes,
		members:    members,
		prizeTypes: prizeTypes,
		strategy:   strategy,
		events:     events,
	}
}

func (s *memberPrizeService) AwardPrize(ctx context.Context, req *dto.AwardPrizeRequest) (*domain.MemberPrize, error) {
	ctx, span := telemetry.StartSpan(ctx, "member_prize.award")
	defer span.End()

	member, err := s.members.GetByID(ctx, req.MemberID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if member == nil {
		return nil, detail(ErrMemberNotFound, "Member with ID %s not found", req.MemberID)
	}
	span.SetAttributes(telemetry.CompanyIDAttr(member.CompanyID), telemetry.MemberIDAttr(member.ID))

	if math.IsNaN(req.PrizeValue) || req.PrizeValue < 0 || req.PrizeValue > domain.MaxPrizeValue {
		return nil, invalid("prizeValue must be between 0 and %.0f", domain.MaxPrizeValue)
	}

	slug := req.PrizeType
	if slug == "" {
		slug = domain.DefaultPrizeType
	}

	prizeType, err := s.prizeTypes.FindBySlug(ctx, slug, member.CompanyID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// persisted before the strategy runs; processing keeps retries out until settled
	status := domain.PrizeStatusPending
	if prizeType != nil {
		status = domain.PrizeStatusProcessing
	}
	now := time.Now()
	prize := &domain.MemberPrize{
		ID:         uuid.New().String(),
		MemberID:   member.ID,
		InstanceID: req.InstanceID,
		PrizeName:  req.PrizeName,
		PrizeType:  slug,
		PrizeValue: req.PrizeValue,
		Status:     status,
		Metadata:   awardMetadata(req.Config, req.Metadata, ""),
		CreatedAt:  now,
		UpdatedAt:  now,
		CompanyID:  member.CompanyID,
	}
	if req.PlayAttemptID != "" {
		attempt := req.PlayAttemptID
		prize.PlayAttemptID = &attempt
	}
	if req.PrizeID != "" {
		prizeID := req.PrizeID
		prize.PrizeID = &prizeID
	}

	if err := s.prizes.Create(ctx, prize); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var strategy domain.PrizeStrategy
	if prizeType != nil {
		strategy = prizeType.Strategy
		result := s.strategy.Execute(ctx, member.ID, prizeType, req.PrizeValue, strategyInput(prize.Metadata))
		if err := s.settle(ctx, prize, result); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	} else {
		logger.Get().WarnContext(ctx, "unknown prize type, recording as pending",
			zap.String("prize_type", slug), zap.String("member_id", member.ID))
	}

	s.publish(ctx, dto.TopicPrizeAwarded, &dto.PrizeAwardedEvent{
		PrizeID:    prize.ID,
		MemberID:   prize.MemberID,
		CompanyID:  member.CompanyID,
		InstanceID: prize.InstanceID,
		PrizeName:  prize.PrizeName,
		PrizeType:  prize.PrizeType,
		PrizeValue: prize.PrizeValue,
		Strategy:   string(strategy),
		Status:     string(prize.Status),
		Note:       prize.StrategyNote(),
		AwardedAt:  now,
	})

	return prize, nil
}

func (s *memberPrizeService) ListMine(ctx context.Context, memberID string) ([]*domain.MemberPrize, error) {
	return s.prizes.ListByMember(ctx, memberID)
}

func (s *memberPrizeService) Claim(ctx context.Context, memberID, prizeID string) (*domain.MemberPrize, error) {
	prize, err := s.prizes.GetByID(ctx, prizeID)
	if err != nil {
		return nil, err
	}
	if prize == nil || prize.MemberID != memberID {
		return nil, ErrMemberPrizeNotFound
	}
	if prize.Status != domain.PrizeStatusPending {
		return nil, detail(ErrInvalidTransition, "Prize is not pending")
	}
	return s.transition(ctx, prize, domain.PrizeStatusClaimed, nil, memberID)
}

func (s *memberPrizeService) List(ctx context.Context, actor *Actor, query *dto.ListMemberPrizesQuery) (*dto.PageResponse[*domain.MemberPrize], error) {
	query.SetDefaults()

	companyID, err := actor.ScopeCompany(query.CompanyID)
	if err != nil {
		return nil, err
	}

	prizes, total, err := s.prizes.List(ctx, repository.MemberPrizeFilter{
		CompanyID:  companyID,
		MemberID:   query.MemberID,
		InstanceID: query.InstanceID,
		Status:     domain.PrizeStatus(query.Status),
		Page:       query.Page,
		Limit:      query.Limit,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewPageResponse(prizes, total, query.Page, query.Limit), nil
}

func (s *memberPrizeService) ListByMember(ctx context.Context, actor *Actor, memberID string) ([]*domain.MemberPrize, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, detail(ErrMemberNotFound, "Member not found")
	}
	if !actor.CanAccessCompany(member.CompanyID) {
		return nil, denied("You do not have access to this member")
	}

	prizes, err := s.prizes.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if len(prizes) > memberHistoryLimit {
		prizes = prizes[:memberHistoryLimit]
	}
	return prizes, nil
}

func (s *memberPrizeService) UpdateStatus(ctx context.Context, actor *Actor, id string, req *dto.UpdatePrizeStatusRequest) (*domain.MemberPrize, error) {
	if valid, msg := req.Validate(); !valid {
		return nil, invalid("%s", msg)
	}

	prize, err := s.accessiblePrize(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !prize.Status.CanTransitionTo(req.Status) {
		return nil, detail(ErrInvalidTransition, "Cannot change prize status from %s to %s", prize.Status, req.Status)
	}
	return s.transition(ctx, prize, req.Status, req.Metadata, actor.UserID)
}

func (s *memberPrizeService) Retry(ctx context.Context, actor *Actor, id string) (*domain.MemberPrize, error) {
	prize, err := s.accessiblePrize(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if prize.Status != domain.PrizeStatusPending && prize.Status != domain.PrizeStatusProcessing {
		return nil, detail(ErrInvalidTransition, "Only pending prizes can be retried")
	}

	prizeType, err := s.prizeTypes.FindBySlug(ctx, prize.PrizeType, prize.CompanyID)
	if err != nil {
		return nil, err
	}
	if prizeType == nil {
		return nil, detail(ErrPrizeTypeNotFound, "Prize type %s not found", prize.PrizeType)
	}

	if err := s.prizes.BeginFulfilment(ctx, prize, time.Now().Add(-fulfilmentLease)); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, detail(ErrInvalidTransition, "Prize is already being fulfilled or is no longer pending")
		}
		return nil, err
	}

	result := s.strategy.Execute(ctx, prize.MemberID, prizeType, prize.PrizeValue, strategyInput(prize.Metadata))
	if err := s.settle(ctx, prize, result); err != nil {
		return nil, err
	}
	if result.Status == domain.PrizeStatusPending {
		return prize, nil
	}

	logger.Get().InfoContext(ctx, "prize status changed",
		zap.String("prize_id", prize.ID), zap.String("from", string(domain.PrizeStatusPending)), zap.String("to", string(result.Status)))

	s.publish(ctx, dto.TopicPrizeStatusChanged, &dto.PrizeStatusChangedEvent{
		PrizeID:   prize.ID,
		MemberID:  prize.MemberID,
		From:      string(domain.PrizeStatusPending),
		To:        string(result.Status),
		ActorID:   actor.UserID,
		ChangedAt: prize.UpdatedAt,
	})
	return prize, nil
}

func (s *memberPrizeService) Stats(ctx context.Context, actor *Actor, companyID string) (*dto.PrizeStatsResponse, error) {
	scoped, err := actor.ScopeCompany(companyID)
	if err != nil {
		return nil, err
	}

	counts, err := s.prizes.CountByStatus(ctx, scoped)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c.Count
	}
	return &dto.PrizeStatsResponse{Stats: counts, Total: total}, nil
}

func (s *memberPrizeService) transition(ctx context.Context, prize *domain.MemberPrize, to domain.PrizeStatus, metadata map[string]interface{}, actorID string) (*domain.MemberPrize, error) {
	from := prize.Status
	prize.Status = to
	prize.Metadata = mergeMetadata(prize.Metadata, metadata)

	if err := s.prizes.UpdateStatus(ctx, prize, from); err != nil {
		prize.Status = from
		return nil, s.mapStale(err)
	}

	logger.Get().InfoContext(ctx, "prize status changed",
		zap.String("prize_id", prize.ID), zap.String("from", string(from)), zap.String("to", string(to)))

	s.publish(ctx, dto.TopicPrizeStatusChanged, &dto.PrizeStatusChangedEvent{
		PrizeID:   prize.ID,
		MemberID:  prize.MemberID,
		From:      string(from),
		To:        string(to),
		ActorID:   actorID,
		ChangedAt: prize.UpdatedAt,
	})
	return prize, nil
}

// settle stores the outcome of a strategy on a prize held in processing
func (s *memberPrizeService) settle(ctx context.Context, prize *domain.MemberPrize, result StrategyResult) error {
	prize.Status = result.Status
	if result.Note != "" {
		prize.Metadata = mergeMetadata(prize.Metadata, map[string]interface{}{"note": result.Note})
	}
	if err := s.prizes.UpdateStatus(ctx, prize, domain.PrizeStatusProcessing); err != nil {
		logger.Get().ErrorContext(ctx, "failed to record strategy result, prize left processing",
			zap.String("prize_id", prize.ID), zap.String("status", string(result.Status)), zap.Error(err))
		return s.mapStale(err)
	}
	return nil
}

func (s *memberPrizeService) accessiblePrize(ctx context.Context, actor *Actor, id string) (*domain.MemberPrize, error) {
	prize, err := s.prizes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if prize == nil {
		return nil, ErrMemberPrizeNotFound
	}
	if !actor.CanAccessCompany(prize.CompanyID) {
		return nil, denied("You do not have access to this prize")
	}
	return prize, nil
}

func (s *memberPrizeService) mapStale(err error) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		return detail(ErrInvalidTransition, "Prize status was changed by another request")
	}
	return err
}

func (s *memberPrizeService) publish(ctx context.Context, topic string, event kafka.Event) {
	if err := s.events.Publish(ctx, topic, event); err != nil {
		logger.Get().WarnContext(ctx, "failed to publish event", zap.String("topic", topic), zap.Error(err))
	}
}

// awardMetadata lays out a won prize's metadata: the prize list entry that
// produced it, the caller's metadata and the latest strategy note
func awardMetadata(config, metadata map[string]interface{}, note string) map[string]interface{} {
	return map[string]interface{}{
		"config":   config,
		"metadata": metadata,
		"note":     note,
	}
}

// strategyInput is the context handed to a strategy: the stored config and metadata
func strategyInput(stored map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"config":   stored["config"],
		"metadata": stored["metadata"],
	}
}

func copyMetadata(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func mergeMetadata(base, extra map[string]interface{}) map[string]interface{} {
	merged := copyMetadata(base)
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

package service

import (
	"context"
	"strconv"
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

// Player identifies the member submitting a play
type Player struct {
	MemberID string
	// Impersonated plays are answered but never recorded
	Impersonated bool
}

// ScoreService records member plays and awards the prizes they win
type ScoreService interface {
	// Submit stores the score and, when metadata.prizeIndex names an entry of
	// the instance's prizeList, awards that prize
	Submit(ctx context.Context, player Player, req *dto.SubmitScoreRequest) (*dto.SubmitScoreResponse, error)
	ListMine(ctx context.Context, memberID string) ([]*domain.Score, error)
}

type scoreService struct {
	scores    repository.ScoreRepository
	members   repository.MemberRepository
	instances GameInstanceService
	prizes    MemberPrizeService
	events    kafka.Publisher
}

// NewScoreService creates a new ScoreService
func NewScoreService(
	scores repository.ScoreRepository,
	members repository.MemberRepository,
	instances GameInstanceService,
	prizes MemberPrizeService,
	events kafka.Publisher,
) ScoreService {
	if events == nil {
		events = kafka.NewNoOpPublisher()
	}
	return &scoreService{
		scores:    scores,
		members:   members,
		instances: instances,
		prizes:    prizes,
		events:    events,
	}
}

func (s *scoreService) Submit(ctx context.Context, player Player, req *dto.SubmitScoreRequest) (*dto.SubmitScoreResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "score.submit")
	defer span.End()

	member, err := s.members.GetByID(ctx, player.MemberID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if member == nil {
		return nil, detail(ErrMemberNotFound, "Member with ID %s not found", player.MemberID)
	}
	if !member.IsActive {
		return nil, ErrMemberInactive
	}
	span.SetAttributes(telemetry.CompanyIDAttr(member.CompanyID), telemetry.MemberIDAttr(member.ID))

	inst, err := s.instances.FindPlayable(ctx, member.CompanyID, req.InstanceSlug)
	if err != nil {
		return nil, err
	}

	score := &domain.Score{
		ID:         uuid.New().String(),
		MemberID:   member.ID,
		InstanceID: inst.ID,
		Score:      req.Score,
		Metadata:   req.Metadata,
		CreatedAt:  time.Now(),
	}
	if score.Metadata == nil {
		score.Metadata = make(map[string]interface{})
	}

	if player.Impersonated {
		logger.Get().InfoContext(ctx, "impersonated play not recorded",
			zap.String("member_id", member.ID), zap.String("instance_id", inst.ID))
		return &dto.SubmitScoreResponse{Score: score}, nil
	}

	if err := s.scores.Create(ctx, score); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := &dto.SubmitScoreResponse{Score: score}
	if idx, ok := score.PrizeIndex(); ok && !score.MarkedLost() {
		if slot, found := inst.PrizeAt(idx, float64(score.Score)); found {
			prize, err := s.prizes.AwardPrize(ctx, &dto.AwardPrizeRequest{
				MemberID:      member.ID,
				InstanceID:    inst.ID,
				PlayAttemptID: score.ID,
				PrizeID:       strconv.Itoa(idx),
				PrizeName:     slot.Name,
				PrizeType:     slot.Type,
				PrizeValue:    slot.Value,
				Config:        slot.Config,
				Metadata:      req.Metadata,
			})
			if err != nil {
				telemetry.RecordError(span, err)
				logger.Get().ErrorContext(ctx, "failed to award prize for score",
					zap.String("score_id", score.ID), zap.Int("prize_index", idx), zap.Error(err))
				return nil, err
			}
			resp.Prize = prize
		} else {
			logger.Get().WarnContext(ctx, "prize index outside prize list",
				zap.String("instance_id", inst.ID), zap.Int("prize_index", idx))
		}
	}

	event := &dto.ScoreSubmittedEvent{
		ScoreID:     score.ID,
		MemberID:    member.ID,
		CompanyID:   member.CompanyID,
		InstanceID:  inst.ID,
		Score:       score.Score,
		SubmittedAt: score.CreatedAt,
	}
	if resp.Prize != nil {
		event.PrizeID = resp.Prize.ID
	}
	if err := s.events.Publish(ctx, dto.TopicScoreSubmitted, event); err != nil {
		logger.Get().WarnContext(ctx, "failed to publish event", zap.String("topic", dto.TopicScoreSubmitted), zap.Error(err))
	}

	return resp, nil
}

func (s *scoreService) ListMine(ctx context.Context, memberID string) ([]*domain.Score, error) {
	return s.scores.ListByMember(ctx, memberID, memberHistoryLimit)
}

package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/client"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/metrics"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/telemetry"
	"go.uber.org/zap"
)

// StrategyResult is the outcome of fulfilling a won prize
type StrategyResult struct {
	Status domain.PrizeStatus
	Note   string
}

// PointsCreditor adds points to a member balance
type PointsCreditor interface {
	UpdatePoints(ctx context.Context, memberID string, delta int64) (*domain.Member, error)
}

// PrizeStrategyExecutor fulfils won prizes according to their prize type
type PrizeStrategyExecutor interface {
	// Execute runs the strategy of prizeType. It never fails: every error is
	// folded into a pending result with an explanatory note.
	Execute(ctx context.Context, memberID string, prizeType *domain.PrizeType, prizeValue float64, metadata map[string]interface{}) StrategyResult
}

type prizeStrategyExecutor struct {
	credits  PointsCreditor
	webhooks client.WebhookClient
	outcomes *telemetry.Outcomes
	log      *logger.Logger
}

// NewPrizeStrategyExecutor creates a new PrizeStrategyExecutor
func NewPrizeStrategyExecutor(credits PointsCreditor, webhooks client.WebhookClient) PrizeStrategyExecutor {
	outcomes, err := telemetry.NewOutcomes("prize.strategy", "Prize strategy executions by strategy and resulting status")
	if err != nil {
		logger.Get().Warn("failed to create prize strategy instruments", zap.Error(err))
	}

	return &prizeStrategyExecutor{
		credits:  credits,
		webhooks: webhooks,
		outcomes: outcomes,
		log:      logger.Get().Named("prize-strategy"),
	}
}

func (e *prizeStrategyExecutor) Execute(ctx context.Context, memberID string, prizeType *domain.PrizeType, prizeValue float64, metadata map[string]interface{}) StrategyResult {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "prize_strategy.execute")
	defer span.End()

	span.SetAttributes(
		telemetry.MemberIDAttr(memberID),
		telemetry.PrizeTypeAttr(prizeType.Slug),
		telemetry.PrizeStrategyAttr(string(prizeType.Strategy)),
	)

	e.log.InfoContext(ctx, "executing prize strategy",
		zap.String("strategy", string(prizeType.Strategy)),
		zap.String("member_id", memberID),
	)

	var result StrategyResult
	switch prizeType.Strategy {
	case domain.PrizeStrategyBalanceCredit:
		result = e.balanceCredit(ctx, memberID, prizeValue)
	case domain.PrizeStrategyExternalHook:
		result = e.externalHook(ctx, memberID, prizeType)
	case domain.PrizeStrategyVirtualCode:
		result = StrategyResult{Status: domain.PrizeStatusPending, Note: "Awaiting virtual code assignment"}
	default:
		result = StrategyResult{Status: domain.PrizeStatusPending}
	}

	span.SetAttributes(telemetry.PrizeStatusAttr(string(result.Status)))
	e.outcomes.Record(ctx, start,
		telemetry.PrizeStrategyAttr(string(prizeType.Strategy)),
		telemetry.PrizeStatusAttr(string(result.Status)),
	)
	metrics.PrizeOutcomes.WithLabelValues(string(prizeType.Strategy), string(result.Status)).Inc()

	return result
}

func (e *prizeStrategyExecutor) balanceCredit(ctx context.Context, memberID string, amount float64) StrategyResult {
	if math.IsNaN(amount) || amount < 0 || amount > domain.MaxPrizeValue {
		e.log.WarnContext(ctx, "balance credit out of range", zap.String("member_id", memberID), zap.Float64("amount", amount))
		return StrategyResult{
			Status: domain.PrizeStatusPending,
			Note:   fmt.Sprintf("Auto-credit failed: amount %s is out of range. Manual retry needed.", strconv.FormatFloat(amount, 'g', -1, 64)),
		}
	}
	if _, err := e.credits.UpdatePoints(ctx, memberID, int64(math.Round(amount))); err != nil {
		e.log.ErrorContext(ctx, "balance credit failed", zap.String("member_id", memberID), zap.Error(err))
		return StrategyResult{
			Status: domain.PrizeStatusPending,
			Note:   fmt.Sprintf("Auto-credit failed: %s. Manual retry needed.", err.Error()),
		}
	}
	return StrategyResult{
		Status: domain.PrizeStatusFulfilled,
		Note:   fmt.Sprintf("Automatically credited %s points/balance.", strconv.FormatFloat(amount, 'f', -1, 64)),
	}
}

func (e *prizeStrategyExecutor) externalHook(ctx context.Context, memberID string, prizeType *domain.PrizeType) StrategyResult {
	url := prizeType.WebhookURL()
	if url == "" {
		return StrategyResult{Status: domain.PrizeStatusPending, Note: "External activation failed: Webhook URL not configured."}
	}

	var payload interface{} = map[string]interface{}{
		"memberId":  memberID,
		"prizeName": prizeType.Name,
	}
	if custom, ok := prizeType.Config["payload"]; ok && custom != nil {
		payload = custom
	}

	resp, err := e.webhooks.Post(ctx, url, payload)
	if err != nil {
		e.log.ErrorContext(ctx, "webhook failed", zap.String("url", url), zap.Error(err))
		return StrategyResult{
			Status: domain.PrizeStatusPending,
			Note:   fmt.Sprintf("Connection to external system failed: %s", err.Error()),
		}
	}
	if !resp.OK() {
		return StrategyResult{
			Status: domain.PrizeStatusPending,
			Note:   fmt.Sprintf("External system returned error: %s", resp.Body),
		}
	}
	return StrategyResult{Status: domain.PrizeStatusFulfilled, Note: "Activated via external system successfully."}
}

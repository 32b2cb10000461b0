package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/client"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prizeTypeWith(strategy domain.PrizeStrategy, config map[string]interface{}) *domain.PrizeType {
	return &domain.PrizeType{Name: "Gift Card", Slug: "gift", Strategy: strategy, Config: config}
}

func TestExecute_BalanceCredit(t *testing.T) {
	credits := &stubCreditor{}
	exec := NewPrizeStrategyExecutor(credits, &stubWebhook{})

	result := exec.Execute(context.Background(), "m-1", prizeTypeWith(domain.PrizeStrategyBalanceCredit, nil), 100, nil)

	assert.Equal(t, domain.PrizeStatusFulfilled, result.Status)
	assert.Equal(t, "Automatically credited 100 points/balance.", result.Note)
	assert.Equal(t, []int64{100}, credits.calls)
}

func TestExecute_BalanceCreditRoundsFractionalValues(t *testing.T) {
	credits := &stubCreditor{}
	exec := NewPrizeStrategyExecutor(credits, &stubWebhook{})

	result := exec.Execute(context.Background(), "m-1", prizeTypeWith(domain.PrizeStrategyBalanceCredit, nil), 10.6, nil)

	assert.Equal(t, domain.PrizeStatusFulfilled, result.Status)
	assert.Equal(t, "Automatically credited 10.6 points/balance.", result.Note)
	assert.Equal(t, []int64{11}, credits.calls)
}

func TestExecute_BalanceCreditFailure(t *testing.T) {
	exec := NewPrizeStrategyExecutor(&stubCreditor{err: errors.New("Member with ID m-1 not found")}, &stubWebhook{})

	result := exec.Execute(context.Background(), "m-1", prizeTypeWith(domain.PrizeStrategyBalanceCredit, nil), 5, nil)

	assert.Equal(t, domain.PrizeStatusPending, result.Status)
	assert.Equal(t, "Auto-credit failed: Member with ID m-1 not found. Manual retry needed.", result.Note)
}

func TestExecute_BalanceCreditRejectsOutOfRangeAmounts(t *testing.T) {
	for _, amount := range []float64{1e19, math.Inf(1), math.NaN(), -5, domain.MaxPrizeValue + 1} {
		credits := &stubCreditor{}
		exec := NewPrizeStrategyExecutor(credits, &stubWebhook{})

		result := exec.Execute(context.Background(), "m-1", prizeTypeWith(domain.PrizeStrategyBalanceCredit, nil), amount, nil)

		assert.Equal(t, domain.PrizeStatusPending, result.Status, amount)
		assert.Contains(t, result.Note, "out of range", amount)
		assert.Empty(t, credits.credited(), "no credit for %v", amount)
	}

	credits := &stubCreditor{}
	exec := NewPrizeStrategyExecutor(credits, &stubWebhook{})
	result := exec.Execute(context.Background(), "m-1", prizeTypeWith(domain.PrizeStrategyBalanceCredit, nil), domain.MaxPrizeValue, nil)
	assert.Equal(t, domain.PrizeStatusFulfilled, result.Status)
	assert.Equal(t, []int64{int64(domain.MaxPrizeValue)}, credits.credited())
}

func TestExecute_ExternalHookWithoutURL(t *testing.T) {
	hook := &stubWebhook{}
	exec := NewPrizeStrategyExecutor(&stubCreditor{}, hook)

	result := exec.Execute(context.Background(), "m-1", prizeTypeWith(domain.PrizeStrategyExternalHook, map[string]interface{}{}), 0, nil)

	assert.Equal(t, domain.PrizeStatusPending, result.Status)
	assert.Equal(t, "External activation failed: Webhook URL not configured.", result.Note)
	assert.Empty(t, hook.url, "webhook must not be called")
}

func TestExecute_ExternalHookDefaultPayload(t *testing.T) {
	hook := &stubWebhook{}
	exec := NewPrizeStrategyExecutor(&stubCreditor{}, hook)

	pt := prizeTypeWith(domain.PrizeStrategyExternalHook, map[string]interface{}{"webhookUrl": "https://partner.example/activate"})
	result := exec.Execute(context.Background(), "m-1", pt, 0, nil)

	assert.Equal(t, domain.PrizeStatusFulfilled, result.Status)
	assert.Equal(t, "Activated via external system successfully.", result.Note)
	assert.Equal(t, "https://partner.example/activate", hook.url)
	assert.Equal(t, map[string]interface{}{"memberId": "m-1", "prizeName": "Gift Card"}, hook.payload)
}

func TestExecute_ExternalHookCustomPayload(t *testing.T) {
	hook := &stubWebhook{}
	exec := NewPrizeStrategyExecutor(&stubCreditor{}, hook)

	custom := map[string]interface{}{"sku": "GC-50"}
	pt := prizeTypeWith(domain.PrizeStrategyExternalHook, map[string]interface{}{
		"webhookUrl": "https://partner.example/activate",
		"payload":    custom,
	})
	exec.Execute(context.Background(), "m-1", pt, 0, nil)

	assert.Equal(t, custom, hook.payload)
}

func TestExecute_ExternalHookRejected(t *testing.T) {
	hook := &stubWebhook{resp: &client.WebhookResponse{StatusCode: 500, Body: "out of stock"}}
	exec := NewPrizeStrategyExecutor(&stubCreditor{}, hook)

	pt := prizeTypeWith(domain.PrizeStrategyExternalHook, map[string]interface{}{"webhookUrl": "https://partner.example"})
	result := exec.Execute(context.Background(), "m-1", pt, 0, nil)

	assert.Equal(t, domain.PrizeStatusPending, result.Status)
	assert.Equal(t, "External system returned error: out of stock", result.Note)
}

func TestExecute_ExternalHookTransportError(t *testing.T) {
	hook := &stubWebhook{err: errors.New("connection refused")}
	exec := NewPrizeStrategyExecutor(&stubCreditor{}, hook)

	pt := prizeTypeWith(domain.PrizeStrategyExternalHook, map[string]interface{}{"webhookUrl": "https://partner.example"})
	result := exec.Execute(context.Background(), "m-1", pt, 0, nil)

	assert.Equal(t, domain.PrizeStatusPending, result.Status)
	assert.Equal(t, "Connection to external system failed: connection refused", result.Note)
}

func TestExecute_PendingStrategies(t *testing.T) {
	tests := []struct {
		strategy domain.PrizeStrategy
		note     string
	}{
		{domain.PrizeStrategyVirtualCode, "Awaiting virtual code assignment"},
		{domain.PrizeStrategyManualFulfill, ""},
		{domain.PrizeStrategy("carrier_pigeon"), ""},
	}

	credits := &stubCreditor{}
	exec := NewPrizeStrategyExecutor(credits, &stubWebhook{})

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			result := exec.Execute(context.Background(), "m-1", prizeTypeWith(tt.strategy, nil), 10, nil)
			require.Equal(t, domain.PrizeStatusPending, result.Status)
			assert.Equal(t, tt.note, result.Note)
		})
	}
	assert.Empty(t, credits.calls)
}

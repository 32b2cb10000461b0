package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcomes counts executions of an operation and records how long each took
type Outcomes struct {
	count    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewOutcomes registers <name>.count and <name>.duration on the current meter
func NewOutcomes(name, description string) (*Outcomes, error) {
	m := Meter()
	count, err := m.Int64Counter(name+".count",
		metric.WithDescription(description),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s.count: %w", name, err)
	}
	duration, err := m.Float64Histogram(name+".duration",
		metric.WithDescription(description),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s.duration: %w", name, err)
	}
	return &Outcomes{count: count, duration: duration}, nil
}

// Record counts one execution that began at start. A nil Outcomes records nothing.
func (o *Outcomes) Record(ctx context.Context, start time.Time, attrs ...attribute.KeyValue) {
	if o == nil {
		return
	}
	opt := metric.WithAttributes(attrs...)
	o.count.Add(ctx, 1, opt)
	o.duration.Record(ctx, time.Since(start).Seconds(), opt)
}

func CompanyIDAttr(id string) attribute.KeyValue { return attribute.String("company.id", id) }

func MemberIDAttr(id string) attribute.KeyValue { return attribute.String("member.id", id) }

func PrizeTypeAttr(slug string) attribute.KeyValue { return attribute.String("prize.type", slug) }

func PrizeStrategyAttr(s string) attribute.KeyValue { return attribute.String("prize.strategy", s) }

func PrizeStatusAttr(s string) attribute.KeyValue { return attribute.String("prize.status", s) }

func StatusCodeAttr(code int) attribute.KeyValue {
	return attribute.Int("http.response.status_code", code)
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/metrics"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/telemetry"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// maxWebhookBody caps how much of a response body is kept
const maxWebhookBody = 64 << 10

// WebhookResponse is the outcome of a webhook call that reached the remote system
type WebhookResponse struct {
	StatusCode int
	Body       string
}

// OK reports whether the remote system answered 2xx
func (r *WebhookResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// WebhookClient delivers prize activation requests to external systems
type WebhookClient interface {
	// Post sends payload as JSON to url. A transport failure returns an error;
	// any HTTP answer, including non-2xx, returns a response.
	Post(ctx context.Context, url string, payload interface{}) (*WebhookResponse, error)
}

// HTTPWebhookClient implements WebhookClient using HTTP
type HTTPWebhookClient struct {
	httpClient *http.Client
}

// NewHTTPWebhookClient creates a new HTTP webhook client
func NewHTTPWebhookClient(timeout time.Duration) *HTTPWebhookClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPWebhookClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Post sends payload as a JSON POST, propagating the caller's trace context
func (c *HTTPWebhookClient) Post(ctx context.Context, url string, payload interface{}) (*WebhookResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "webhook.post", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	start := time.Now()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	telemetry.InjectHeaders(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.WebhookDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookBody))
	if err != nil {
		metrics.WebhookDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	result := &WebhookResponse{StatusCode: resp.StatusCode, Body: string(respBody)}
	span.SetAttributes(telemetry.StatusCodeAttr(resp.StatusCode))
	outcome := "success"
	if !result.OK() {
		outcome = "rejected"
	}
	metrics.WebhookDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return result, nil
}

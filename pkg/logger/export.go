package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// ExportConfig ships log entries to an OTLP/HTTP logs endpoint in batches
type ExportConfig struct {
	Endpoint    string // full URL, e.g. http://otel-collector:4318/v1/logs
	ServiceName string
	BatchSize   int           // default 100
	Interval    time.Duration // default 1s
	Timeout     time.Duration // default 5s
}

type otlpValue map[string]interface{}

type otlpAttr struct {
	Key   string    `json:"key"`
	Value otlpValue `json:"value"`
}

type otlpRecord struct {
	TimeUnixNano         string     `json:"timeUnixNano"`
	ObservedTimeUnixNano string     `json:"observedTimeUnixNano"`
	SeverityNumber       int        `json:"severityNumber"`
	SeverityText         string     `json:"severityText"`
	Body                 otlpValue  `json:"body"`
	Attributes           []otlpAttr `json:"attributes,omitempty"`
	TraceID              string     `json:"traceId,omitempty"`
	SpanID               string     `json:"spanId,omitempty"`
}

// exporter buffers records and posts them from a single background loop
type exporter struct {
	cfg    ExportConfig
	client *http.Client

	mu      sync.Mutex
	pending []otlpRecord

	kick chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func newExporter(cfg ExportConfig) *exporter {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	e := &exporter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		kick:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *exporter) add(r otlpRecord) {
	e.mu.Lock()
	e.pending = append(e.pending, r)
	full := len(e.pending) >= e.cfg.BatchSize
	e.mu.Unlock()

	if full {
		select {
		case e.kick <- struct{}{}:
		default:
		}
	}
}

func (e *exporter) run() {
	defer close(e.done)
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.flush()
		case <-e.kick:
			e.flush()
		case <-e.stop:
			e.flush()
			return
		}
	}
}

func (e *exporter) flush() {
	e.mu.Lock()
	records := e.pending
	e.pending = nil
	e.mu.Unlock()
	if len(records) == 0 {
		return
	}

	payload := map[string]interface{}{
		"resourceLogs": []interface{}{map[string]interface{}{
			"resource": map[string]interface{}{
				"attributes": []otlpAttr{{Key: "service.name", Value: otlpValue{"stringValue": e.cfg.ServiceName}}},
			},
			"scopeLogs": []interface{}{map[string]interface{}{
				"scope":      map[string]string{"name": "go.uber.org/zap"},
				"logRecords": records,
			}},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: encode export batch: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: build export request: %v\n", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		fmt.Fprintf(os.Stderr, "logger: export rejected with status %d, %d records dropped\n", resp.StatusCode, len(records))
	}
}

func (e *exporter) close() {
	e.once.Do(func() { close(e.stop) })
	<-e.done
}

// exportCore is a zapcore.Core feeding an exporter
type exportCore struct {
	zapcore.LevelEnabler
	exp    *exporter
	fields []zapcore.Field
}

func (c *exportCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &exportCore{LevelEnabler: c.LevelEnabler, exp: c.exp, fields: merged}
}

func (c *exportCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *exportCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	rec := otlpRecord{
		TimeUnixNano:         fmt.Sprint(ent.Time.UnixNano()),
		ObservedTimeUnixNano: fmt.Sprint(time.Now().UnixNano()),
		SeverityNumber:       severity(ent.Level),
		SeverityText:         ent.Level.CapitalString(),
		Body:                 otlpValue{"stringValue": ent.Message},
	}
	if ent.Caller.Defined {
		rec.Attributes = append(rec.Attributes, otlpAttr{Key: "code.caller", Value: otlpValue{"stringValue": ent.Caller.TrimmedPath()}})
	}
	for key, v := range enc.Fields {
		switch key {
		case "trace_id":
			rec.TraceID = fmt.Sprint(v)
			continue
		case "span_id":
			rec.SpanID = fmt.Sprint(v)
			continue
		}
		rec.Attributes = append(rec.Attributes, otlpAttr{Key: key, Value: anyValue(v)})
	}

	c.exp.add(rec)
	return nil
}

func (c *exportCore) Sync() error {
	c.exp.flush()
	return nil
}

// severity maps zap levels onto OTLP severity numbers
func severity(l zapcore.Level) int {
	switch {
	case l <= zapcore.DebugLevel:
		return 5
	case l == zapcore.InfoLevel:
		return 9
	case l == zapcore.WarnLevel:
		return 13
	case l == zapcore.ErrorLevel:
		return 17
	default:
		return 21
	}
}

func anyValue(v interface{}) otlpValue {
	switch t := v.(type) {
	case string:
		return otlpValue{"stringValue": t}
	case bool:
		return otlpValue{"boolValue": t}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return otlpValue{"intValue": fmt.Sprint(t)}
	case float32, float64:
		return otlpValue{"doubleValue": t}
	case time.Duration:
		return otlpValue{"stringValue": t.String()}
	case time.Time:
		return otlpValue{"stringValue": t.Format(time.RFC3339Nano)}
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return otlpValue{"stringValue": fmt.Sprint(t)}
		}
		return otlpValue{"stringValue": string(b)}
	}
}

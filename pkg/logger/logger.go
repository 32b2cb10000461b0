package logger

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ContextKey is the type for context values picked up by WithContext
type ContextKey string

const (
	// RequestIDKey carries the X-Request-ID of the current request
	RequestIDKey ContextKey = "request_id"
	// CompanyIDKey carries the tenant the request acts on
	CompanyIDKey ContextKey = "company_id"
	// ActorIDKey carries the admin user or member making the request
	ActorIDKey ContextKey = "actor_id"
)

var contextKeys = []ContextKey{RequestIDKey, CompanyIDKey, ActorIDKey}

// Logger is a zap logger that knows how to pull request fields out of a context
type Logger struct {
	*zap.Logger
	exp *exporter
}

// Config holds logger configuration
type Config struct {
	Level       string // debug, info, warn, error
	ServiceName string
	Development bool   // console encoding when true, JSON otherwise
	OutputPath  string // stdout, stderr, or a file path
	// Export additionally ships entries to an OTLP/HTTP collector when set
	Export *ExportConfig
}

// DefaultConfig returns JSON logging at info level to stdout
func DefaultConfig() *Config {
	return &Config{
		Level:       "info",
		ServiceName: "prize-platform",
		OutputPath:  "stdout",
	}
}

var (
	mu     sync.Mutex
	global *Logger
)

// New builds a Logger from cfg. Unknown levels fall back to info.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	output := cfg.OutputPath
	if output == "" {
		output = "stdout"
	}

	encoding := zap.NewProductionEncoderConfig()
	encoding.TimeKey = "timestamp"
	encoding.MessageKey = "message"
	encoding.EncodeTime = zapcore.ISO8601TimeEncoder
	encoding.EncodeDuration = zapcore.MillisDurationEncoder

	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "json",
		EncoderConfig:    encoding,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    map[string]interface{}{"service": cfg.ServiceName},
	}
	if cfg.Development {
		zc.Development = true
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	var exp *exporter
	if cfg.Export != nil && cfg.Export.Endpoint != "" {
		export := *cfg.Export
		if export.ServiceName == "" {
			export.ServiceName = cfg.ServiceName
		}
		exp = newExporter(export)
		opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, &exportCore{LevelEnabler: zc.Level, exp: exp})
		}))
	}

	zl, err := zc.Build(opts...)
	if err != nil {
		if exp != nil {
			exp.close()
		}
		return nil, err
	}
	return &Logger{Logger: zl, exp: exp}, nil
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Init replaces the global logger
func Init(cfg *Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	global = l
	mu.Unlock()
	return nil
}

// Get returns the global logger, building a default one on first use
func Get() *Logger {
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		l, err := New(nil)
		if err != nil {
			l = NewNop()
		}
		global = l
	}
	return global
}

// WithContext adds the active trace and any request, company or actor IDs on ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.Stringer("trace_id", sc.TraceID()),
			zap.Stringer("span_id", sc.SpanID()),
		)
	}
	for _, key := range contextKeys {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}
	if len(fields) == 0 {
		return l
	}
	return &Logger{Logger: l.Logger.With(fields...)}
}

// Named tags every entry with a component field
func (l *Logger) Named(component string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("component", component))}
}

func (l *Logger) InfoContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.WithContext(ctx).Info(msg, fields...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.WithContext(ctx).Warn(msg, fields...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.WithContext(ctx).Error(msg, fields...)
}

func Info(msg string, fields ...zap.Field)  { Get().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Get().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Get().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { Get().Fatal(msg, fields...) }

// Sync flushes the global logger
func Sync() error {
	return Get().Sync()
}

// Close flushes the global logger and stops log export
func Close() {
	l := Get()
	_ = l.Sync()
	if l.exp != nil {
		l.exp.close()
	}
}

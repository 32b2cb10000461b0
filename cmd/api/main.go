package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/di"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/handler"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/service"
	"github.com/gh900098/Mini-Game-Cursor-sub001/migrations"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/config"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/database"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/encryption"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/kafka"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/metrics"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/middleware"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/mongodb"
	pkgredis "github.com/gh900098/Mini-Game-Cursor-sub001/pkg/redis"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	logConfig := &logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
		OutputPath:  "stdout",
	}
	if cfg.OTel.Enabled && cfg.OTel.LogsEndpoint != "" {
		logConfig.Export = &logger.ExportConfig{Endpoint: cfg.OTel.LogsEndpoint}
	}
	if err := logger.Init(logConfig); err != nil {
		logger.Fatal("failed to init logger", zap.Error(err))
	}
	defer logger.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		logger.Warn("telemetry disabled", zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      5,
		RetryInterval:   2 * time.Second,
	})
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	applied, err := database.Migrate(ctx, db.Pool(), migrations.FS)
	if err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", zap.Strings("versions", applied))
	}

	checks := map[string]handler.HealthCheck{"postgres": db.HealthCheck}

	redisClient, err := pkgredis.NewClient(ctx, &pkgredis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		MaxRetries:   3,
	})
	if err != nil {
		// cache and shared rate limits degrade to local behavior
		logger.Warn("redis unavailable, running without cache", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var events kafka.Publisher = kafka.NewNoOpPublisher()
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(ctx, kafka.ProducerConfig{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
		})
		if err != nil {
			logger.Fatal("failed to connect to kafka", zap.Error(err))
		}
		events = producer
	}
	defer events.Close()

	var logins repository.LoginHistoryRepository = repository.NewMemoryLoginHistoryRepository(0)
	if cfg.MongoDB.Enabled {
		mongoClient, err := mongodb.NewClient(ctx, mongodb.Config{
			URI:            cfg.MongoDB.URI,
			Database:       cfg.MongoDB.Database,
			ConnectTimeout: 10 * time.Second,
		})
		if err != nil {
			logger.Fatal("failed to connect to mongodb", zap.Error(err))
		}
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()

		mongoLogins := repository.NewMongoLoginHistoryRepository(mongoClient.Collection(repository.LoginHistoryCollection))
		if err := mongoLogins.EnsureIndexes(ctx); err != nil {
			logger.Warn("failed to create login history indexes", zap.Error(err))
		}
		logins = mongoLogins
		checks["mongodb"] = mongoClient.Ping
	}

	cipher, err := encryption.New(cfg.Security.EncryptionKey, cfg.Security.HashingSecret)
	if err != nil {
		logger.Fatal("failed to init field encryption", zap.Error(err))
	}

	container := di.NewContainer(&di.ContainerConfig{
		DB:                db,
		Redis:             redisClient,
		Events:            events,
		Cipher:            cipher,
		LoginHistoryRepo:  logins,
		PrizeTypeCacheTTL: cfg.Cache.PrizeTypeTTL,
		WebhookTimeout:    cfg.Webhook.Timeout,
		BcryptCost:        cfg.Security.BcryptCost,
		AuthConfig: &service.AuthServiceConfig{
			JWTSecret:      cfg.JWT.Secret,
			AccessTokenTTL: cfg.JWT.AccessTokenTTL,
			Issuer:         cfg.JWT.Issuer,
		},
		MemberConfig: &service.MemberServiceConfig{
			JWTSecret:      cfg.JWT.Secret,
			MemberTokenTTL: cfg.JWT.MemberTokenTTL,
			BcryptCost:     cfg.Security.BcryptCost,
		},
		HealthChecks: checks,
	})

	var auditLogger *middleware.AuditLogger
	if cfg.Audit.Enabled {
		auditConfig := middleware.DefaultAuditConfig(db.Pool())
		auditConfig.BufferSize = cfg.Audit.BufferSize
		auditConfig.BatchSize = cfg.Audit.BatchSize
		auditConfig.FlushInterval = cfg.Audit.FlushInterval
		auditConfig.JWTSecret = cfg.JWT.Secret
		auditConfig.ModuleEnabled = container.SettingsService.AuditModuleEnabled
		auditLogger = middleware.NewAuditLogger(auditConfig)
		defer func() { _ = auditLogger.Close() }()
	}

	rateLimit := middleware.DefaultRateLimitConfig()
	rateLimit.Disabled = !cfg.RateLimit.Enabled
	rateLimit.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
	rateLimit.BurstSize = cfg.RateLimit.BurstSize
	if cfg.RateLimit.UseRedis {
		rateLimit.RedisClient = redisClient
	}

	metrics.Init()

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.Server.CORSOrigins

	handler.NewRouter(container.Handlers, handler.RouterConfig{
		JWTSecret:   cfg.JWT.Secret,
		AuditLogger: auditLogger,
		RateLimit:   rateLimit,
		CORS:        cors,
		Metrics:     true,
	}).SetupRoutes(engine)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown failed", zap.Error(err))
	}

	logger.Info("server exited")
}

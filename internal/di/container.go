package di

import (
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/client"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/handler"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/service"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/database"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/encryption"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/kafka"
	pkgredis "github.com/gh900098/Mini-Game-Cursor-sub001/pkg/redis"
)

// Container holds all dependencies for the prize platform API
type Container struct {
	// Infrastructure
	DB     *database.PostgresDB
	Redis  *pkgredis.Client
	Events kafka.Publisher
	Cipher *encryption.Cipher

	// Repositories
	PrizeTypeRepo    repository.PrizeTypeRepository
	MemberRepo       repository.MemberRepository
	TransactionRepo  repository.CreditTransactionRepository
	MemberPrizeRepo  repository.MemberPrizeRepository
	CompanyRepo      repository.CompanyRepository
	RoleRepo         repository.RoleRepository
	PermissionRepo   repository.PermissionRepository
	UserRepo         repository.UserRepository
	UserCompanyRepo  repository.UserCompanyRepository
	SettingRepo      repository.SettingRepository
	AuditLogRepo     repository.AuditLogRepository
	LoginHistoryRepo repository.LoginHistoryRepository
	GameRepo         repository.GameRepository
	GameInstanceRepo repository.GameInstanceRepository
	ScoreRepo        repository.ScoreRepository

	// Services
	SettingsService     service.SettingsService
	AuditLogService     service.AuditLogService
	PrizeTypeService    service.PrizeTypeService
	MemberService       service.MemberService
	MemberPrizeService  service.MemberPrizeService
	ExternalAuthService service.ExternalAuthService
	CompanyService      service.CompanyService
	RoleService         service.RoleService
	UserService         service.UserService
	UserCompanyService  service.UserCompanyService
	AuthService         service.AuthService
	GameService         service.GameService
	GameInstanceService service.GameInstanceService
	ScoreService        service.ScoreService

	// Handlers
	Handlers *handler.Handlers
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB     *database.PostgresDB
	Redis  *pkgredis.Client
	Events kafka.Publisher
	Cipher *encryption.Cipher

	// LoginHistoryRepo is the Mongo or in-memory store chosen at startup
	LoginHistoryRepo repository.LoginHistoryRepository
	// PrizeTypeCacheTTL enables the Redis read-through cache when Redis is set
	PrizeTypeCacheTTL time.Duration
	WebhookTimeout    time.Duration
	BcryptCost        int

	AuthConfig   *service.AuthServiceConfig
	MemberConfig *service.MemberServiceConfig

	// HealthChecks are run by the readiness probe
	HealthChecks map[string]handler.HealthCheck
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:               cfg.DB,
		Redis:            cfg.Redis,
		Events:           cfg.Events,
		Cipher:           cfg.Cipher,
		LoginHistoryRepo: cfg.LoginHistoryRepo,
	}
	if c.Events == nil {
		c.Events = kafka.NewNoOpPublisher()
	}
	if c.LoginHistoryRepo == nil {
		c.LoginHistoryRepo = repository.NewMemoryLoginHistoryRepository(0)
	}

	c.initRepositories(cfg)
	c.initServices(cfg)
	c.initHandlers(cfg)

	return c
}

func (c *Container) initRepositories(cfg *ContainerConfig) {
	pool := c.DB.Pool()

	var prizeTypes repository.PrizeTypeRepository = repository.NewPostgresPrizeTypeRepository(pool)
	if c.Redis != nil && cfg.PrizeTypeCacheTTL > 0 {
		prizeTypes = repository.NewCachedPrizeTypeRepository(prizeTypes, c.Redis, cfg.PrizeTypeCacheTTL)
	}
	c.PrizeTypeRepo = prizeTypes

	c.MemberRepo = repository.NewPostgresMemberRepository(pool)
	c.TransactionRepo = repository.NewPostgresCreditTransactionRepository(pool)
	c.MemberPrizeRepo = repository.NewPostgresMemberPrizeRepository(pool)
	c.CompanyRepo = repository.NewPostgresCompanyRepository(pool)
	c.RoleRepo = repository.NewPostgresRoleRepository(pool)
	c.PermissionRepo = repository.NewPostgresPermissionRepository(pool)
	c.UserRepo = repository.NewPostgresUserRepository(pool)
	c.UserCompanyRepo = repository.NewPostgresUserCompanyRepository(pool)
	c.SettingRepo = repository.NewPostgresSettingRepository(pool)
	c.AuditLogRepo = repository.NewPostgresAuditLogRepository(pool)
	c.GameRepo = repository.NewPostgresGameRepository(pool)
	c.GameInstanceRepo = repository.NewPostgresGameInstanceRepository(pool)
	c.ScoreRepo = repository.NewPostgresScoreRepository(pool)
}

func (c *Container) initServices(cfg *ContainerConfig) {
	c.SettingsService = service.NewSettingsService(c.SettingRepo)
	c.AuditLogService = service.NewAuditLogService(c.AuditLogRepo)
	c.PrizeTypeService = service.NewPrizeTypeService(c.PrizeTypeRepo)

	c.MemberService = service.NewMemberService(
		c.MemberRepo,
		c.TransactionRepo,
		c.MemberPrizeRepo,
		c.LoginHistoryRepo,
		c.SettingRepo,
		c.AuditLogService,
		c.Events,
		cfg.MemberConfig,
	)

	strategy := service.NewPrizeStrategyExecutor(c.MemberService, client.NewHTTPWebhookClient(cfg.WebhookTimeout))
	c.MemberPrizeService = service.NewMemberPrizeService(
		c.MemberPrizeRepo,
		c.MemberRepo,
		c.PrizeTypeService,
		strategy,
		c.Events,
	)

	c.GameService = service.NewGameService(c.GameRepo)
	c.GameInstanceService = service.NewGameInstanceService(c.GameInstanceRepo, c.GameRepo, c.CompanyRepo)
	c.ScoreService = service.NewScoreService(
		c.ScoreRepo,
		c.MemberRepo,
		c.GameInstanceService,
		c.MemberPrizeService,
		c.Events,
	)

	c.ExternalAuthService = service.NewExternalAuthService(c.CompanyRepo, c.MemberService, c.Cipher)
	c.CompanyService = service.NewCompanyService(c.CompanyRepo, c.Cipher)
	c.RoleService = service.NewRoleService(c.RoleRepo, c.PermissionRepo)
	c.UserService = service.NewUserService(c.UserRepo, c.Cipher, cfg.BcryptCost)
	c.UserCompanyService = service.NewUserCompanyService(c.UserCompanyRepo, c.UserRepo, c.CompanyRepo, c.RoleRepo)
	c.AuthService = service.NewAuthService(
		c.UserRepo,
		c.UserCompanyRepo,
		c.CompanyRepo,
		c.LoginHistoryRepo,
		c.SettingsService,
		c.Cipher,
		cfg.AuthConfig,
	)
}

func (c *Container) initHandlers(cfg *ContainerConfig) {
	c.Handlers = &handler.Handlers{
		Auth:        handler.NewAuthHandler(c.AuthService, c.SettingsService),
		MemberAuth:  handler.NewMemberAuthHandler(c.ExternalAuthService, c.MemberService),
		Members:     handler.NewMemberHandler(c.MemberService),
		MemberPrize: handler.NewMemberPrizeHandler(c.MemberPrizeService, c.MemberService, c.GameInstanceService),
		PrizeTypes:  handler.NewPrizeTypeHandler(c.PrizeTypeService),
		Games:       handler.NewGameHandler(c.GameService),
		Instances:   handler.NewGameInstanceHandler(c.GameInstanceService),
		Scores:      handler.NewScoreHandler(c.ScoreService),
		Companies:   handler.NewCompanyHandler(c.CompanyService),
		Users:       handler.NewUserHandler(c.UserService, c.UserCompanyService),
		Roles:       handler.NewRoleHandler(c.RoleService),
		AuditLogs:   handler.NewAuditLogHandler(c.AuditLogService),
		Settings:    handler.NewSettingsHandler(c.SettingsService),
		Seed:        handler.NewSeedHandler(c.RoleService, c.PrizeTypeService),
		Health:      handler.NewHealthHandler(cfg.HealthChecks),
	}
}

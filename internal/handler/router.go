package handler

import (
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/metrics"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth        *AuthHandler
	MemberAuth  *MemberAuthHandler
	Members     *MemberHandler
	MemberPrize *MemberPrizeHandler
	PrizeTypes  *PrizeTypeHandler
	Games       *GameHandler
	Instances   *GameInstanceHandler
	Scores      *ScoreHandler
	Companies   *CompanyHandler
	Users       *UserHandler
	Roles       *RoleHandler
	AuditLogs   *AuditLogHandler
	Settings    *SettingsHandler
	Seed        *SeedHandler
	Health      *HealthHandler
}

// RouterConfig holds the cross-cutting middleware settings
type RouterConfig struct {
	JWTSecret string
	// AuditLogger is optional; nil disables the audit trail
	AuditLogger *middleware.AuditLogger
	// RateLimit guards the public member login endpoints
	RateLimit middleware.RateLimitConfig
	CORS      middleware.CORSConfig
	Metrics   bool
}

// Router mounts the admin, member and public APIs on a gin engine
type Router struct {
	handlers  *Handlers
	config    RouterConfig
	jwtConfig *middleware.JWTConfig
}

// NewRouter creates a new router
func NewRouter(handlers *Handlers, config RouterConfig) *Router {
	return &Router{
		handlers: handlers,
		config:   config,
		jwtConfig: &middleware.JWTConfig{
			Secret: config.JWTSecret,
		},
	}
}

// SetupRoutes configures all routes on the given engine
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(middleware.RequestID())
	engine.Use(middleware.AccessLog("/health", "/ready", "/metrics"))
	engine.Use(middleware.CORSWithConfig(r.config.CORS))
	if r.config.Metrics {
		engine.Use(metrics.Middleware())
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	h := r.handlers
	engine.GET("/health", h.Health.Health)
	engine.GET("/ready", h.Health.Ready)

	v1 := engine.Group("/api/v1")
	r.setupPublicRoutes(v1)
	r.setupAdminRoutes(v1)
	r.setupMemberRoutes(v1)
}

func (r *Router) audit() gin.HandlerFunc {
	if r.config.AuditLogger == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.AuditMiddleware(r.config.AuditLogger)
}

func (r *Router) setupPublicRoutes(v1 *gin.RouterGroup) {
	h := r.handlers

	auth := v1.Group("/auth")
	{
		auth.POST("/login", r.audit(), h.Auth.Login)
		auth.GET("/verification-required", h.Auth.VerificationRequired)

		limited := auth.Group("", middleware.RateLimiter(r.config.RateLimit))
		limited.POST("/external", h.MemberAuth.External)
		limited.POST("/guest", h.MemberAuth.Guest)
	}

	v1.GET("/system-settings/public", h.Settings.Public)
	v1.GET("/games", h.Games.Lobby)
}

func (r *Router) setupAdminRoutes(v1 *gin.RouterGroup) {
	h := r.handlers
	jwtAuth := middleware.JWTMiddleware(r.jwtConfig)

	auth := v1.Group("/auth", jwtAuth, middleware.RequireAdmin(), r.audit())
	{
		auth.POST("/switch-company", h.Auth.SwitchCompany)
		auth.GET("/me", h.Auth.Me)
		auth.GET("/login-history", h.Auth.LoginHistory)
	}

	admin := v1.Group("/admin", jwtAuth, middleware.RequireAdmin(), r.audit())

	types := admin.Group("/prizes/types")
	{
		types.GET("", middleware.RequirePermission("games:read"), h.PrizeTypes.List)
		types.GET("/:idOrSlug", middleware.RequirePermission("games:read"), h.PrizeTypes.Get)
		types.POST("", middleware.RequirePermission("games:manage"), h.PrizeTypes.Create)
		types.POST("/seed", middleware.RequirePermission("games:manage"), h.PrizeTypes.Seed)
		types.PATCH("/:idOrSlug", middleware.RequirePermission("games:manage"), h.PrizeTypes.Update)
		types.DELETE("/:idOrSlug", middleware.RequirePermission("games:manage"), h.PrizeTypes.Delete)
	}

	games := admin.Group("/games")
	{
		games.GET("", middleware.RequirePermission("games:read"), h.Games.List)
		games.GET("/stats", middleware.RequirePermission("games:read"), h.Games.Stats)
		games.GET("/:idOrSlug", middleware.RequirePermission("games:read"), h.Games.Get)
		games.POST("", middleware.RequirePermission("games:manage"), h.Games.Create)
		games.PATCH("/:idOrSlug", middleware.RequirePermission("games:manage"), h.Games.Update)
		games.DELETE("/:idOrSlug", middleware.RequirePermission("games:manage"), h.Games.Delete)
	}

	instances := admin.Group("/game-instances")
	{
		instances.GET("", middleware.RequirePermission("games:read"), h.Instances.List)
		instances.GET("/:id", middleware.RequirePermission("games:read"), h.Instances.Get)
		instances.POST("", middleware.RequirePermission("games:manage"), h.Instances.Create)
		instances.PATCH("/:id", middleware.RequirePermission("games:manage"), h.Instances.Update)
		instances.DELETE("/:id", middleware.RequirePermission("games:manage"), h.Instances.Delete)
	}

	prizes := admin.Group("/prizes")
	{
		prizes.GET("", middleware.RequirePermission("prizes:read"), h.MemberPrize.List)
		prizes.GET("/stats", middleware.RequirePermission("prizes:read"), h.MemberPrize.Stats)
		prizes.POST("/award", middleware.RequirePermission("prizes:manage"), h.MemberPrize.Award)
		prizes.PATCH("/:id/status", middleware.RequirePermission("prizes:manage"), h.MemberPrize.UpdateStatus)
		prizes.POST("/:id/retry", middleware.RequirePermission("prizes:manage"), h.MemberPrize.Retry)
	}

	members := admin.Group("/members", middleware.RequireRoleLevel(middleware.RoleLevelStaff))
	{
		members.GET("", h.Members.List)
		members.POST("", h.Members.Create)
		members.GET("/credit-history-all", h.Members.AllCreditHistory)
		members.GET("/:id", h.Members.Get)
		members.PATCH("/:id", h.Members.Update)
		members.DELETE("/:id", middleware.RequireRoleLevel(middleware.RoleLevelCompanyAdmin), h.Members.Delete)
		members.PATCH("/:id/toggle-status", h.Members.ToggleStatus)
		members.PATCH("/:id/reset-password", h.Members.ResetPassword)
		members.POST("/:id/impersonate", h.Members.Impersonate)
		members.POST("/:id/adjust-credit", middleware.RequirePermission("members:credit"), h.Members.AdjustCredit)
		members.GET("/:id/credit-history", h.Members.CreditHistory)
		members.GET("/:id/login-history", h.Members.LoginHistory)
		members.GET("/:id/prizes", h.MemberPrize.ListByMember)
	}

	companies := admin.Group("/companies")
	{
		companies.GET("", middleware.RequirePermission("companies:read"), h.Companies.List)
		companies.GET("/slug/:slug", middleware.RequirePermission("companies:read"), h.Companies.GetBySlug)
		companies.GET("/:id", middleware.RequirePermission("companies:read"), h.Companies.GetByID)
		companies.POST("", middleware.RequirePermission("companies:manage"), h.Companies.Create)
		companies.PATCH("/:id", middleware.RequirePermission("companies:manage"), h.Companies.Update)
		companies.DELETE("/:id", middleware.RequirePermission("companies:manage"), h.Companies.Delete)
		companies.POST("/:id/rotate-secret", middleware.RequirePermission("companies:manage"), h.Companies.RotateSecret)
	}

	users := admin.Group("/users")
	{
		users.GET("", middleware.RequirePermission("users:read"), h.Users.List)
		users.GET("/:id", middleware.RequirePermission("users:read"), h.Users.Get)
		users.GET("/:id/companies", middleware.RequirePermission("users:read"), h.Users.ListCompanies)
		users.POST("", middleware.RequirePermission("users:manage"), h.Users.Create)
		users.PATCH("/:id", middleware.RequirePermission("users:manage"), h.Users.Update)
		users.DELETE("/:id", middleware.RequirePermission("users:manage"), h.Users.Delete)
		users.POST("/:id/companies", middleware.RequirePermission("users:manage"), h.Users.AddCompany)
		users.DELETE("/:id/companies/:companyId", middleware.RequirePermission("users:manage"), h.Users.RemoveCompany)
		users.PATCH("/:id/companies/:companyId/role", middleware.RequirePermission("users:manage"), h.Users.ChangeRole)
		users.PATCH("/:id/companies/:companyId/set-primary", middleware.RequirePermission("users:manage"), h.Users.SetPrimary)
	}

	roles := admin.Group("/roles")
	{
		roles.GET("", middleware.RequirePermission("roles:read"), h.Roles.List)
		roles.GET("/:id", middleware.RequirePermission("roles:read"), h.Roles.Get)
		roles.POST("", middleware.RequirePermission("roles:manage"), h.Roles.Create)
		roles.PATCH("/:id", middleware.RequirePermission("roles:manage"), h.Roles.Update)
		roles.DELETE("/:id", middleware.RequirePermission("roles:manage"), h.Roles.Delete)
		roles.PUT("/:id/permissions", middleware.RequirePermission("roles:manage"), h.Roles.AssignPermissions)
	}

	permissions := admin.Group("/permissions")
	{
		permissions.GET("", middleware.RequirePermission("roles:read"), h.Roles.ListPermissions)
		permissions.GET("/:id", middleware.RequirePermission("roles:read"), h.Roles.GetPermission)
		permissions.POST("", middleware.RequirePermission("roles:manage"), h.Roles.CreatePermission)
		permissions.PATCH("/:id", middleware.RequirePermission("roles:manage"), h.Roles.UpdatePermission)
		permissions.DELETE("/:id", middleware.RequirePermission("roles:manage"), h.Roles.DeletePermission)
	}

	auditLogs := admin.Group("/audit-logs", middleware.RequirePermission("audit:read"))
	{
		auditLogs.GET("", h.AuditLogs.List)
		auditLogs.GET("/options", h.AuditLogs.Options)
		auditLogs.GET("/:id", h.AuditLogs.Get)
	}

	settings := admin.Group("/system-settings", middleware.RequireRoleLevel(middleware.RoleLevelSuperAdmin))
	{
		settings.GET("", h.Settings.GetAll)
		settings.POST("", h.Settings.SetMany)
		settings.GET("/:key", h.Settings.Get)
		settings.PUT("/:key", h.Settings.Set)
	}

	admin.POST("/seed/run", middleware.RequireRoleLevel(middleware.RoleLevelSuperAdmin), h.Seed.Run)
}

func (r *Router) setupMemberRoutes(v1 *gin.RouterGroup) {
	h := r.handlers

	member := v1.Group("/member", middleware.JWTMiddleware(r.jwtConfig), middleware.RequireMember())
	{
		member.GET("/me", h.MemberAuth.Me)
		member.GET("/prizes", h.MemberPrize.ListMine)
		member.POST("/prizes/:id/claim", h.MemberPrize.Claim)
		member.GET("/scores", h.Scores.ListMine)
		member.POST("/scores", h.Scores.Submit)
		member.POST("/link", h.MemberAuth.Link)
	}
}

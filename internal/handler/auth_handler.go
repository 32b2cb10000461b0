package handler

import (
	"net/http"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/service"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/middleware"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
)

// AuthHandler handles admin authentication
type AuthHandler struct {
	auth     service.AuthService
	settings service.SettingsService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth service.AuthService, settings service.SettingsService) *AuthHandler {
	return &AuthHandler{auth: auth, settings: settings}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.login")
	defer span.End()

	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Login(ctx, &req, clientInfo(c))
	if err != nil {
		telemetry.RecordError(span, err)
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(result))
}

// SwitchCompany handles POST /api/v1/auth/switch-company
func (h *AuthHandler) SwitchCompany(c *gin.Context) {
	var req dto.SwitchCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User session not found"))
		return
	}

	result, err := h.auth.SwitchCompany(c.Request.Context(), claims, req.CompanyID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User session not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(claims))
}

// LoginHistory handles GET /api/v1/auth/login-history
func (h *AuthHandler) LoginHistory(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	result, err := h.auth.LoginHistory(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// VerificationRequired handles GET /api/v1/auth/verification-required
func (h *AuthHandler) VerificationRequired(c *gin.Context) {
	required := h.settings.IsTrue(c.Request.Context(), domain.SettingEmailVerificationRequired)
	c.JSON(http.StatusOK, response.Success(gin.H{"required": required}))
}

package handler

import (
	"net/http"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/service"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gin-gonic/gin"
)

// SettingsHandler handles global system settings
type SettingsHandler struct {
	settings service.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settings service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Public handles GET /api/v1/system-settings/public
func (h *SettingsHandler) Public(c *gin.Context) {
	result, err := h.settings.Public(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// GetAll handles GET /api/v1/admin/system-settings
func (h *SettingsHandler) GetAll(c *gin.Context) {
	result, err := h.settings.GetAll(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Get handles GET /api/v1/admin/system-settings/:key
func (h *SettingsHandler) Get(c *gin.Context) {
	result, err := h.settings.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Set handles PUT /api/v1/admin/system-settings/:key
func (h *SettingsHandler) Set(c *gin.Context) {
	var req dto.SetSettingRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.settings.Set(c.Request.Context(), c.Param("key"), req.Value, req.Description)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// SetMany handles POST /api/v1/admin/system-settings
func (h *SettingsHandler) SetMany(c *gin.Context) {
	var values map[string]interface{}
	if !bindJSON(c, &values) {
		return
	}

	if err := h.settings.SetMany(c.Request.Context(), values); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.MessageResponse{Message: "Settings saved"}))
}

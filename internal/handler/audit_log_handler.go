package handler

import (
	"net/http"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/service"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gin-gonic/gin"
)

// AuditLogHandler serves the audit trail
type AuditLogHandler struct {
	auditLogs service.AuditLogService
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(auditLogs service.AuditLogService) *AuditLogHandler {
	return &AuditLogHandler{auditLogs: auditLogs}
}

// List handles GET /api/v1/admin/audit-logs
func (h *AuditLogHandler) List(c *gin.Context) {
	var query dto.ListAuditLogsQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.auditLogs.List(c.Request.Context(), actorFrom(c), &query)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Options handles GET /api/v1/admin/audit-logs/options
func (h *AuditLogHandler) Options(c *gin.Context) {
	result, err := h.auditLogs.Options(c.Request.Context(), actorFrom(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Get handles GET /api/v1/admin/audit-logs/:id
func (h *AuditLogHandler) Get(c *gin.Context) {
	result, err := h.auditLogs.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/service"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/middleware"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gin-gonic/gin"
)

// MemberHandler handles member administration
type MemberHandler struct {
	members service.MemberService
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(members service.MemberService) *MemberHandler {
	return &MemberHandler{members: members}
}

// List handles GET /api/v1/admin/members
func (h *MemberHandler) List(c *gin.Context) {
	var query dto.ListMembersQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.members.List(c.Request.Context(), actorFrom(c), &query)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Get handles GET /api/v1/admin/members/:id
func (h *MemberHandler) Get(c *gin.Context) {
	result, err := h.members.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Create handles POST /api/v1/admin/members
func (h *MemberHandler) Create(c *gin.Context) {
	var req dto.CreateMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.members.Create(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	middleware.SetAuditCompany(c, result.CompanyID)
	c.JSON(http.StatusCreated, response.Success(result))
}

// Update handles PATCH /api/v1/admin/members/:id
func (h *MemberHandler) Update(c *gin.Context) {
	var req dto.UpdateMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.members.Update(c.Request.Context(), actorFrom(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// ToggleStatus handles PATCH /api/v1/admin/members/:id/toggle-status
func (h *MemberHandler) ToggleStatus(c *gin.Context) {
	var req dto.ToggleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, response.Binding(err))
		return
	}

	result, err := h.members.SetStatus(c.Request.Context(), actorFrom(c), c.Param("id"), req.IsActive)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// ResetPassword handles PATCH /api/v1/admin/members/:id/reset-password
func (h *MemberHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.members.ResetPassword(c.Request.Context(), actorFrom(c), c.Param("id"), req.Password); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.MessageResponse{Message: "Password reset successfully"}))
}

// Impersonate handles POST /api/v1/admin/members/:id/impersonate
func (h *MemberHandler) Impersonate(c *gin.Context) {
	result, err := h.members.Impersonate(c.Request.Context(), actorFrom(c), c.Param("id"), c.GetHeader("Referer"))
	if err != nil {
		handleError(c, err)
		return
	}
	middleware.SetAuditResult(c, map[string]interface{}{"success": true, "redirectUrl": result.RedirectURL})
	c.JSON(http.StatusOK, response.Success(result))
}

// AdjustCredit handles POST /api/v1/admin/members/:id/adjust-credit
func (h *MemberHandler) AdjustCredit(c *gin.Context) {
	var req dto.AdjustCreditRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.members.AdjustCredit(c.Request.Context(), actorFrom(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	// the service writes its own audit entry
	middleware.SkipAudit(c)
	c.JSON(http.StatusOK, response.Success(result))
}

// CreditHistory handles GET /api/v1/admin/members/:id/credit-history
func (h *MemberHandler) CreditHistory(c *gin.Context) {
	result, err := h.members.CreditHistory(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// AllCreditHistory handles GET /api/v1/admin/members/credit-history-all
func (h *MemberHandler) AllCreditHistory(c *gin.Context) {
	var query dto.CreditHistoryQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.members.AllCreditHistory(c.Request.Context(), actorFrom(c), &query)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// LoginHistory handles GET /api/v1/admin/members/:id/login-history
func (h *MemberHandler) LoginHistory(c *gin.Context) {
	result, err := h.members.LoginHistory(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Delete handles DELETE /api/v1/admin/members/:id
func (h *MemberHandler) Delete(c *gin.Context) {
	if err := h.members.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.MessageResponse{Message: "Member deleted successfully"}))
}

package handler

import (
	"net/http"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/service"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/middleware"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// MemberAuthHandler handles member logins from company systems and the player app
type MemberAuthHandler struct {
	externalAuth service.ExternalAuthService
	members      service.MemberService
}

// NewMemberAuthHandler creates a new MemberAuthHandler
func NewMemberAuthHandler(externalAuth service.ExternalAuthService, members service.MemberService) *MemberAuthHandler {
	return &MemberAuthHandler{externalAuth: externalAuth, members: members}
}

// External handles POST /api/v1/auth/external
func (h *MemberAuthHandler) External(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.member_auth.external")
	defer span.End()

	var req dto.ExternalAuthRequest
	if !bindJSON(c, &req) {
		return
	}

	span.SetAttributes(
		attribute.String("company_slug", req.CompanySlug),
		attribute.String("external_id", req.ExternalID),
	)

	result, err := h.externalAuth.Authenticate(ctx, &req, clientInfo(c))
	if err != nil {
		telemetry.RecordError(span, err)
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(result))
}

// Guest handles POST /api/v1/auth/guest
func (h *MemberAuthHandler) Guest(c *gin.Context) {
	var req dto.GuestLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.externalAuth.GuestLogin(c.Request.Context(), req.CompanySlug, clientInfo(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Link handles POST /api/v1/member/link
func (h *MemberAuthHandler) Link(c *gin.Context) {
	var req dto.LinkAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	memberID, _ := middleware.GetUserID(c)
	result, err := h.externalAuth.LinkAccount(c.Request.Context(), memberID, &req.ExternalAuthRequest)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Me handles GET /api/v1/member/me
func (h *MemberAuthHandler) Me(c *gin.Context) {
	memberID, _ := middleware.GetUserID(c)

	member, err := h.members.FindByID(c.Request.Context(), memberID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.MemberSummary{
		ID:       member.ID,
		Username: member.Username,
		Points:   member.PointsBalance,
	}))
}

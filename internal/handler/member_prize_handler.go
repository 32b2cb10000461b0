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

// MemberPrizeHandler handles won prizes for admins and for the winning member
type MemberPrizeHandler struct {
	prizes    service.MemberPrizeService
	members   service.MemberService
	instances service.GameInstanceService
}

// NewMemberPrizeHandler creates a new MemberPrizeHandler
func NewMemberPrizeHandler(prizes service.MemberPrizeService, members service.MemberService, instances service.GameInstanceService) *MemberPrizeHandler {
	return &MemberPrizeHandler{prizes: prizes, members: members, instances: instances}
}

// Award handles POST /api/v1/admin/prizes/award
func (h *MemberPrizeHandler) Award(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.member_prize.award")
	defer span.End()

	var req dto.AwardPrizeRequest
	if !bindJSON(c, &req) {
		return
	}

	span.SetAttributes(
		telemetry.MemberIDAttr(req.MemberID),
		telemetry.PrizeTypeAttr(req.PrizeType),
		attribute.String("instance_id", req.InstanceID),
	)

	// the member and the instance must belong to the caller's company
	actor := actorFrom(c)
	member, err := h.members.Get(ctx, actor, req.MemberID)
	if err != nil {
		telemetry.RecordError(span, err)
		handleError(c, err)
		return
	}
	instance, err := h.instances.Get(ctx, actor, req.InstanceID)
	if err != nil {
		telemetry.RecordError(span, err)
		handleError(c, err)
		return
	}
	if instance.CompanyID != member.CompanyID {
		c.JSON(http.StatusBadRequest, response.BadRequest("Game instance and member belong to different companies"))
		return
	}

	result, err := h.prizes.AwardPrize(ctx, &req)
	if err != nil {
		telemetry.RecordError(span, err)
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, response.Success(result))
}

// List handles GET /api/v1/admin/prizes
func (h *MemberPrizeHandler) List(c *gin.Context) {
	var query dto.ListMemberPrizesQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.prizes.List(c.Request.Context(), actorFrom(c), &query)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Stats handles GET /api/v1/admin/prizes/stats
func (h *MemberPrizeHandler) Stats(c *gin.Context) {
	result, err := h.prizes.Stats(c.Request.Context(), actorFrom(c), c.Query("companyId"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// UpdateStatus handles PATCH /api/v1/admin/prizes/:id/status
func (h *MemberPrizeHandler) UpdateStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.member_prize.update_status")
	defer span.End()

	var req dto.UpdatePrizeStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeValidationFailed, msg))
		return
	}

	result, err := h.prizes.UpdateStatus(ctx, actorFrom(c), c.Param("id"), &req)
	if err != nil {
		telemetry.RecordError(span, err)
		handleError(c, err)
		return
	}

	span.SetAttributes(telemetry.PrizeStatusAttr(string(result.Status)))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(result))
}

// Retry handles POST /api/v1/admin/prizes/:id/retry
func (h *MemberPrizeHandler) Retry(c *gin.Context) {
	result, err := h.prizes.Retry(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// ListByMember handles GET /api/v1/admin/members/:id/prizes
func (h *MemberPrizeHandler) ListByMember(c *gin.Context) {
	result, err := h.prizes.ListByMember(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// ListMine handles GET /api/v1/member/prizes
func (h *MemberPrizeHandler) ListMine(c *gin.Context) {
	memberID, _ := middleware.GetUserID(c)

	result, err := h.prizes.ListMine(c.Request.Context(), memberID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Claim handles POST /api/v1/member/prizes/:id/claim
func (h *MemberPrizeHandler) Claim(c *gin.Context) {
	memberID, _ := middleware.GetUserID(c)

	result, err := h.prizes.Claim(c.Request.Context(), memberID, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

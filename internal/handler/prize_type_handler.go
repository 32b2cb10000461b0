package handler

import (
	"net/http"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/service"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/middleware"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
)

// PrizeTypeHandler handles prize type administration
type PrizeTypeHandler struct {
	prizeTypes service.PrizeTypeService
}

// NewPrizeTypeHandler creates a new PrizeTypeHandler
func NewPrizeTypeHandler(prizeTypes service.PrizeTypeService) *PrizeTypeHandler {
	return &PrizeTypeHandler{prizeTypes: prizeTypes}
}

// tenantOf returns the company a prize type request acts on. Super admins may pass ?companyId=.
// It answers 400 and returns false when that company is not a UUID.
func tenantOf(c *gin.Context) (string, bool) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return "", true
	}
	if claims.IsSuperAdmin {
		if requested := c.Query("companyId"); requested != "" {
			if !validCompanyID(c, &requested) {
				return "", false
			}
			return requested, true
		}
	}
	return claims.CurrentCompanyID, true
}

// validCompanyID answers 400 unless companyID is nil, blank or a UUID
func validCompanyID(c *gin.Context, companyID *string) bool {
	if companyID == nil || *companyID == "" {
		return true
	}
	if _, err := uuid.Parse(*companyID); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("companyId must be a valid UUID"))
		return false
	}
	return true
}

// Create handles POST /api/v1/admin/prizes/types
func (h *PrizeTypeHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.prize_type.create")
	defer span.End()

	var req dto.CreatePrizeTypeRequest
	if !bindJSON(c, &req) {
		return
	}
	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeValidationFailed, msg))
		return
	}

	claims, _ := middleware.GetClaims(c)
	if claims != nil && claims.IsSuperAdmin && !validCompanyID(c, req.CompanyID) {
		return
	}
	if claims == nil || !claims.IsSuperAdmin || req.CompanyID == nil {
		var current *string
		if claims != nil && claims.CurrentCompanyID != "" {
			id := claims.CurrentCompanyID
			current = &id
		}
		req.CompanyID = current
	}

	result, err := h.prizeTypes.Create(ctx, &req)
	if err != nil {
		telemetry.RecordError(span, err)
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, response.Success(result))
}

// List handles GET /api/v1/admin/prizes/types
func (h *PrizeTypeHandler) List(c *gin.Context) {
	tenant, ok := tenantOf(c)
	if !ok {
		return
	}
	result, err := h.prizeTypes.FindAll(c.Request.Context(), tenant)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Get handles GET /api/v1/admin/prizes/types/:idOrSlug
func (h *PrizeTypeHandler) Get(c *gin.Context) {
	tenant, ok := tenantOf(c)
	if !ok {
		return
	}
	result, err := h.prizeTypes.ResolveType(c.Request.Context(), c.Param("idOrSlug"), tenant)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Update handles PATCH /api/v1/admin/prizes/types/:idOrSlug
func (h *PrizeTypeHandler) Update(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.prize_type.update")
	defer span.End()

	var req dto.UpdatePrizeTypeRequest
	if !bindJSON(c, &req) {
		return
	}
	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeValidationFailed, msg))
		return
	}

	// Only super admins move a type between tenants
	if claims, ok := middleware.GetClaims(c); req.CompanyID != nil && (!ok || !claims.IsSuperAdmin) {
		req.CompanyID = nil
	}
	if !validCompanyID(c, req.CompanyID) {
		return
	}
	tenant, ok := tenantOf(c)
	if !ok {
		return
	}

	result, err := h.prizeTypes.Update(ctx, c.Param("idOrSlug"), &req, tenant)
	if err != nil {
		telemetry.RecordError(span, err)
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(result))
}

// Delete handles DELETE /api/v1/admin/prizes/types/:idOrSlug
func (h *PrizeTypeHandler) Delete(c *gin.Context) {
	tenant, ok := tenantOf(c)
	if !ok {
		return
	}
	if err := h.prizeTypes.Remove(c.Request.Context(), c.Param("idOrSlug"), tenant); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.MessageResponse{Message: "Prize type deleted successfully"}))
}

// Seed handles POST /api/v1/admin/prizes/types/seed
func (h *PrizeTypeHandler) Seed(c *gin.Context) {
	result, err := h.prizeTypes.SeedDefaults(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

package handler

import (
	"net/http"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/service"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gin-gonic/gin"
)

// CompanyHandler handles company management HTTP requests
type CompanyHandler struct {
	companyService service.CompanyService
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(companyService service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// Create handles company creation
// POST /api/v1/admin/companies
func (h *CompanyHandler) Create(c *gin.Context) {
	var req dto.CreateCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.companyService.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	// keep the one-time secret out of the audit trail
	res := *result
	res.APISecret = ""
	setAuditResultAndCompany(c, &res, result.ID)

	c.JSON(http.StatusCreated, response.Success(result))
}

// GetByID handles retrieving a company by ID
// GET /api/v1/admin/companies/:id
func (h *CompanyHandler) GetByID(c *gin.Context) {
	result, err := h.companyService.GetByID(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// GetBySlug handles retrieving a company by slug
// GET /api/v1/admin/companies/slug/:slug
func (h *CompanyHandler) GetBySlug(c *gin.Context) {
	result, err := h.companyService.GetBySlug(c.Request.Context(), actorFrom(c), c.Param("slug"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// List handles retrieving companies with pagination
// GET /api/v1/admin/companies
func (h *CompanyHandler) List(c *gin.Context) {
	var query dto.ListCompaniesQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.companyService.List(c.Request.Context(), actorFrom(c), &query)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Update handles company update
// PATCH /api/v1/admin/companies/:id
func (h *CompanyHandler) Update(c *gin.Context) {
	var req dto.UpdateCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.Error("INVALID_UPDATE", msg))
		return
	}

	result, err := h.companyService.Update(c.Request.Context(), actorFrom(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Delete handles company deletion
// DELETE /api/v1/admin/companies/:id
func (h *CompanyHandler) Delete(c *gin.Context) {
	if err := h.companyService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.MessageResponse{Message: "Company deleted successfully"}))
}

// RotateSecret issues a new API secret, shown once
// POST /api/v1/admin/companies/:id/rotate-secret
func (h *CompanyHandler) RotateSecret(c *gin.Context) {
	result, err := h.companyService.RotateSecret(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	setAuditResultAndCompany(c, map[string]interface{}{"success": true, "rotated": true}, result.ID)
	c.JSON(http.StatusOK, response.Success(result))
}

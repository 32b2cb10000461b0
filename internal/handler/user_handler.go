package handler

import (
	"net/http"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/service"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gin-gonic/gin"
)

// UserHandler handles admin accounts and their company memberships
type UserHandler struct {
	users       service.UserService
	memberships service.UserCompanyService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users service.UserService, memberships service.UserCompanyService) *UserHandler {
	return &UserHandler{users: users, memberships: memberships}
}

// Create handles POST /api/v1/admin/users
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.users.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(result))
}

// List handles GET /api/v1/admin/users
func (h *UserHandler) List(c *gin.Context) {
	var query dto.ListUsersQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.users.List(c.Request.Context(), actorFrom(c), &query)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Get handles GET /api/v1/admin/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	result, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Update handles PATCH /api/v1/admin/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.users.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Delete handles DELETE /api/v1/admin/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.MessageResponse{Message: "User deleted successfully"}))
}

// AddCompany handles POST /api/v1/admin/users/:id/companies
func (h *UserHandler) AddCompany(c *gin.Context) {
	var req dto.AddUserCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.memberships.Add(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(result))
}

// ListCompanies handles GET /api/v1/admin/users/:id/companies
func (h *UserHandler) ListCompanies(c *gin.Context) {
	result, err := h.memberships.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// RemoveCompany handles DELETE /api/v1/admin/users/:id/companies/:companyId
func (h *UserHandler) RemoveCompany(c *gin.Context) {
	if err := h.memberships.Remove(c.Request.Context(), c.Param("id"), c.Param("companyId")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.MessageResponse{Message: "User removed from company"}))
}

// ChangeRole handles PATCH /api/v1/admin/users/:id/companies/:companyId/role
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var req dto.UpdateUserCompanyRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.memberships.ChangeRole(c.Request.Context(), c.Param("id"), c.Param("companyId"), req.RoleID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// SetPrimary handles PATCH /api/v1/admin/users/:id/companies/:companyId/set-primary
func (h *UserHandler) SetPrimary(c *gin.Context) {
	if err := h.memberships.SetPrimary(c.Request.Context(), c.Param("id"), c.Param("companyId")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.MessageResponse{Message: "Primary company updated"}))
}

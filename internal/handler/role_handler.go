package handler

import (
	"net/http"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/service"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gin-gonic/gin"
)

// RoleHandler handles roles and the permissions they grant
type RoleHandler struct {
	roles service.RoleService
}

// NewRoleHandler creates a new RoleHandler
func NewRoleHandler(roles service.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// Create handles POST /api/v1/admin/roles
func (h *RoleHandler) Create(c *gin.Context) {
	var req dto.CreateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.roles.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(result))
}

// List handles GET /api/v1/admin/roles
func (h *RoleHandler) List(c *gin.Context) {
	result, err := h.roles.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Get handles GET /api/v1/admin/roles/:id
func (h *RoleHandler) Get(c *gin.Context) {
	result, err := h.roles.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Update handles PATCH /api/v1/admin/roles/:id
func (h *RoleHandler) Update(c *gin.Context) {
	var req dto.UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.roles.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Delete handles DELETE /api/v1/admin/roles/:id
func (h *RoleHandler) Delete(c *gin.Context) {
	if err := h.roles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.MessageResponse{Message: "Role deleted successfully"}))
}

// AssignPermissions handles PUT /api/v1/admin/roles/:id/permissions
func (h *RoleHandler) AssignPermissions(c *gin.Context) {
	var req dto.AssignPermissionsRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.roles.AssignPermissions(c.Request.Context(), c.Param("id"), req.PermissionIDs)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// CreatePermission handles POST /api/v1/admin/permissions
func (h *RoleHandler) CreatePermission(c *gin.Context) {
	var req dto.CreatePermissionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.roles.CreatePermission(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(result))
}

// ListPermissions handles GET /api/v1/admin/permissions
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	result, err := h.roles.ListPermissions(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// GetPermission handles GET /api/v1/admin/permissions/:id
func (h *RoleHandler) GetPermission(c *gin.Context) {
	result, err := h.roles.GetPermission(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// UpdatePermission handles PATCH /api/v1/admin/permissions/:id
func (h *RoleHandler) UpdatePermission(c *gin.Context) {
	var req dto.UpdatePermissionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.roles.UpdatePermission(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// DeletePermission handles DELETE /api/v1/admin/permissions/:id
func (h *RoleHandler) DeletePermission(c *gin.Context) {
	if err := h.roles.DeletePermission(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.MessageResponse{Message: "Permission deleted successfully"}))
}

package dto

// CreateRoleRequest represents request to create a role
type CreateRoleRequest struct {
	Name          string   `json:"name" binding:"required,max=100"`
	Slug          string   `json:"slug" binding:"omitempty,max=100"`
	Description   string   `json:"description"`
	Level         int      `json:"level" binding:"omitempty,min=1,max=100"`
	PermissionIDs []string `json:"permissionIds"`
}

// UpdateRoleRequest represents request to update a role
type UpdateRoleRequest struct {
	Name          *string  `json:"name" binding:"omitempty,max=100"`
	Description   *string  `json:"description"`
	Level         *int     `json:"level" binding:"omitempty,min=1,max=100"`
	PermissionIDs []string `json:"permissionIds"`
}

// AssignPermissionsRequest replaces a role's permissions
type AssignPermissionsRequest struct {
	PermissionIDs []string `json:"permissionIds"`
}

// CreatePermissionRequest represents request to define a permission
type CreatePermissionRequest struct {
	Resource    string `json:"resource" binding:"required,max=50"`
	Action      string `json:"action" binding:"required,max=50"`
	Name        string `json:"name" binding:"omitempty,max=100"`
	Description string `json:"description"`
}

// UpdatePermissionRequest represents request to update a permission
type UpdatePermissionRequest struct {
	Resource    *string `json:"resource" binding:"omitempty,max=50"`
	Action      *string `json:"action" binding:"omitempty,max=50"`
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
}

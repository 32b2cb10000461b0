package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gin-gonic/gin"
)

// Role levels, higher is more privileged
const (
	RoleLevelSuperAdmin   = 100
	RoleLevelCompanyAdmin = 80
	RoleLevelStaff        = 10
	RoleLevelOperator     = 5
)

// Access failure kinds
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// AccessError carries the client-facing message of a failed access check
type AccessError struct {
	Kind    error
	Message string
}

func (e *AccessError) Error() string { return e.Message }

func (e *AccessError) Unwrap() error { return e.Kind }

func unauthenticated(msg string) error {
	return &AccessError{Kind: ErrUnauthenticated, Message: msg}
}

func forbidden(msg string) error {
	return &AccessError{Kind: ErrForbidden, Message: msg}
}

// CheckPermission allows when nothing is required, the user is a super admin, or the
// user holds either the exact "resource:action" or "resource:manage".
func CheckPermission(user *Claims, required string) error {
	if required == "" {
		return nil
	}
	if user == nil {
		return unauthenticated("User session not found")
	}
	if user.IsSuperAdmin {
		return nil
	}
	if user.Permissions == nil {
		return forbidden("User has no permissions assigned")
	}

	resource, _, _ := strings.Cut(required, ":")
	manage := resource + ":manage"
	for _, p := range user.Permissions {
		if p == required || p == manage {
			return nil
		}
	}

	return forbidden(fmt.Sprintf("Missing required permission: %s", required))
}

// CheckRoleLevel allows super admins and users whose current role level reaches level
func CheckRoleLevel(user *Claims, level int) error {
	if level == 0 {
		return nil
	}
	if user == nil {
		return unauthenticated("User session not found")
	}
	if user.IsSuperAdmin {
		return nil
	}
	if user.CurrentRoleLevel == 0 {
		return forbidden("User has no role level assigned")
	}
	if user.CurrentRoleLevel < level {
		return forbidden(fmt.Sprintf("Insufficient permissions. Required level: %d, Current level: %d", level, user.CurrentRoleLevel))
	}
	return nil
}

// HasPermission is CheckPermission as a boolean
func HasPermission(user *Claims, required string) bool {
	return CheckPermission(user, required) == nil
}

// RequirePermission guards a route with CheckPermission
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := GetClaims(c)
		if err := CheckPermission(claims, permission); err != nil {
			abortAccess(c, err)
			return
		}
		c.Next()
	}
}

// RequireRoleLevel guards a route with CheckRoleLevel
func RequireRoleLevel(level int) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := GetClaims(c)
		if err := CheckRoleLevel(claims, level); err != nil {
			abortAccess(c, err)
			return
		}
		c.Next()
	}
}

func abortAccess(c *gin.Context, err error) {
	if errors.Is(err, ErrUnauthenticated) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized(err.Error()))
		return
	}
	c.AbortWithStatusJSON(http.StatusForbidden, response.Forbidden(err.Error()))
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// RoleMember marks tokens issued to players rather than admin users
const RoleMember = "member"

// Context keys for the authenticated principal
const (
	ContextKeyClaims    = "claims"
	ContextKeyUserID    = "user_id"
	ContextKeyCompanyID = "company_id"
	ContextKeyRole      = "role"
)

// Claims is the JWT payload for both admin users and members.
// Member tokens carry Role "member", ExternalID and CompanyID; admin tokens carry the company context.
type Claims struct {
	Email            string   `json:"email,omitempty"`
	Name             string   `json:"name,omitempty"`
	CurrentCompanyID string   `json:"currentCompanyId,omitempty"`
	CurrentRoleID    string   `json:"currentRoleId,omitempty"`
	CurrentRoleLevel int      `json:"currentRoleLevel,omitempty"`
	Permissions      []string `json:"permissions,omitempty"`
	Companies        []string `json:"companies,omitempty"`
	IsSuperAdmin     bool     `json:"isSuperAdmin,omitempty"`

	Role           string `json:"role,omitempty"`
	ExternalID     string `json:"externalId,omitempty"`
	CompanyID      string `json:"companyId,omitempty"`
	IsImpersonated bool   `json:"isImpersonated,omitempty"`

	jwt.RegisteredClaims
}

// UserID returns the subject
func (c *Claims) UserID() string {
	return c.Subject
}

// IsMember reports whether the token belongs to a player
func (c *Claims) IsMember() bool {
	return c.Role == RoleMember
}

// TenantID returns the company the principal currently acts on
func (c *Claims) TenantID() string {
	if c.IsMember() {
		return c.CompanyID
	}
	return c.CurrentCompanyID
}

// JWTConfig holds configuration for JWT middleware
type JWTConfig struct {
	Secret string
	// SkipPaths is a list of paths that should skip JWT validation
	SkipPaths []string
}

// GenerateToken signs claims with HS256, stamping iat/exp from ttl
func GenerateToken(secret string, claims *Claims, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret not set")
	}
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates tokenString and returns its claims
func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// JWTMiddleware validates the bearer token and stores the claims on the context
func JWTMiddleware(config *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, path := range config.SkipPaths {
			if c.Request.URL.Path == path {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("MISSING_TOKEN", "Authorization header is required"))
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_TOKEN", "Invalid authorization header format"))
			return
		}
		tokenString := strings.TrimSpace(authHeader[len(bearerPrefix):])
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_TOKEN", "Token is empty"))
			return
		}

		claims, err := ParseToken(config.Secret, tokenString)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("TOKEN_EXPIRED", "Access token has expired"))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_TOKEN", "Invalid access token"))
			return
		}

		SetClaims(c, claims)
		c.Next()
	}
}

// SetClaims stores claims on the gin context and the request context used for logging
func SetClaims(c *gin.Context, claims *Claims) {
	c.Set(ContextKeyClaims, claims)
	c.Set(ContextKeyUserID, claims.UserID())
	c.Set(ContextKeyCompanyID, claims.TenantID())
	c.Set(ContextKeyRole, claims.Role)

	ctx := context.WithValue(c.Request.Context(), logger.ActorIDKey, claims.UserID())
	if tenant := claims.TenantID(); tenant != "" {
		ctx = context.WithValue(ctx, logger.CompanyIDKey, tenant)
	}
	c.Request = c.Request.WithContext(ctx)
}

// RequireAdmin rejects member tokens on admin routes
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized("User session not found"))
			return
		}
		if claims.IsMember() {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Forbidden("Admin access required"))
			return
		}
		c.Next()
	}
}

// RequireMember only admits member tokens
func RequireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized("User session not found"))
			return
		}
		if !claims.IsMember() {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Forbidden("Member access required"))
			return
		}
		c.Next()
	}
}

// GetClaims extracts the authenticated claims from gin context
func GetClaims(c *gin.Context) (*Claims, bool) {
	v, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok && claims != nil
}

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) (string, bool) {
	return c.GetString(ContextKeyUserID), c.GetString(ContextKeyUserID) != ""
}

// GetCompanyID extracts the current company ID from gin context
func GetCompanyID(c *gin.Context) (string, bool) {
	return c.GetString(ContextKeyCompanyID), c.GetString(ContextKeyCompanyID) != ""
}

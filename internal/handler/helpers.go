package handler

import (
	"errors"
	"net/http"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/service"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/middleware"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorCodes maps service sentinels to response codes, first match wins
var errorCodes = []struct {
	err  error
	code string
}{
	{service.ErrInvalidRequest, response.ErrCodeBadRequest},
	{service.ErrUnknownPermissionIDs, response.ErrCodeBadRequest},
	{service.ErrAccessDenied, response.ErrCodeForbidden},
	{service.ErrSystemRoleProtected, response.ErrCodeSystemRoleProtected},

	{service.ErrPrizeTypeNotFound, response.ErrCodeNotFound},
	{service.ErrMemberPrizeNotFound, response.ErrCodeNotFound},
	{service.ErrMemberNotFound, response.ErrCodeNotFound},
	{service.ErrCompanyNotFound, response.ErrCodeNotFound},
	{service.ErrRoleNotFound, response.ErrCodeNotFound},
	{service.ErrPermissionNotFound, response.ErrCodeNotFound},
	{service.ErrUserNotFound, response.ErrCodeNotFound},
	{service.ErrUserCompanyNotFound, response.ErrCodeNotFound},
	{service.ErrAuditLogNotFound, response.ErrCodeNotFound},
	{service.ErrSettingNotFound, response.ErrCodeNotFound},
	{service.ErrGameNotFound, response.ErrCodeNotFound},
	{service.ErrGameInstanceNotFound, response.ErrCodeNotFound},

	{service.ErrPrizeTypeExists, response.ErrCodeDuplicateEntry},
	{service.ErrMemberExists, response.ErrCodeDuplicateEntry},
	{service.ErrCompanyAlreadyExists, response.ErrCodeDuplicateEntry},
	{service.ErrRoleAlreadyExists, response.ErrCodeDuplicateEntry},
	{service.ErrPermissionExists, response.ErrCodeDuplicateEntry},
	{service.ErrUserAlreadyExists, response.ErrCodeDuplicateEntry},
	{service.ErrUserCompanyExists, response.ErrCodeDuplicateEntry},
	{service.ErrGameExists, response.ErrCodeDuplicateEntry},
	{service.ErrGameInstanceExists, response.ErrCodeDuplicateEntry},
	{service.ErrMemberAlreadyLinked, response.ErrCodeConflict},
	{service.ErrMemberHasHistory, response.ErrCodeConflict},
	{service.ErrGameInUse, response.ErrCodeConflict},
	{service.ErrInvalidTransition, response.ErrCodeInvalidTransition},

	{service.ErrInvalidCredentials, response.ErrCodeUnauthorized},
	{service.ErrUserInactive, response.ErrCodeUnauthorized},
	{service.ErrMemberInactive, response.ErrCodeUnauthorized},
	{service.ErrInvalidCompany, response.ErrCodeUnauthorized},
	{service.ErrEmailNotVerified, response.ErrCodeEmailNotVerified},
	{service.ErrInvalidSignature, response.ErrCodeInvalidSignature},
	{service.ErrRequestExpired, response.ErrCodeRequestExpired},
}

// handleError writes the error envelope for err. Unknown errors are logged and hidden.
func handleError(c *gin.Context, err error) {
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			c.JSON(response.GetHTTPStatus(m.code), response.Error(m.code, errorMessage(err)))
			return
		}
	}

	logger.Get().ErrorContext(c.Request.Context(), "request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, response.InternalError(""))
}

func errorMessage(err error) string {
	var detail *service.DetailError
	if errors.As(err, &detail) {
		return detail.Message
	}
	return err.Error()
}

// actorFrom builds the service actor from the admin token on c
func actorFrom(c *gin.Context) *service.Actor {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return &service.Actor{}
	}
	return &service.Actor{
		UserID:       claims.UserID(),
		UserName:     claims.Email,
		CompanyID:    claims.CurrentCompanyID,
		IsSuperAdmin: claims.IsSuperAdmin,
		RoleLevel:    claims.CurrentRoleLevel,
		Permissions:  claims.Permissions,
	}
}

func clientInfo(c *gin.Context) service.ClientInfo {
	return service.ClientInfo{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

func setAuditResultAndCompany(c *gin.Context, result interface{}, companyID string) {
	middleware.SetAuditResult(c, result)
	middleware.SetAuditCompany(c, companyID)
}

// bindJSON binds the body into req, answering 400 on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, response.Binding(err))
		return false
	}
	return true
}

// bindQuery binds the query string into req, answering 400 on failure
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, response.Binding(err))
		return false
	}
	return true
}

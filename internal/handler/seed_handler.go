package handler

import (
	"net/http"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/service"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gin-gonic/gin"
)

// SeedHandler installs default roles, permissions and prize types
type SeedHandler struct {
	roles      service.RoleService
	prizeTypes service.PrizeTypeService
}

// NewSeedHandler creates a new SeedHandler
func NewSeedHandler(roles service.RoleService, prizeTypes service.PrizeTypeService) *SeedHandler {
	return &SeedHandler{roles: roles, prizeTypes: prizeTypes}
}

// Run handles POST /api/v1/admin/seed/run
func (h *SeedHandler) Run(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.roles.Seed(ctx); err != nil {
		handleError(c, err)
		return
	}
	types, err := h.prizeTypes.SeedDefaults(ctx)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{
		"message":    "Seed completed",
		"prizeTypes": len(types),
	}))
}

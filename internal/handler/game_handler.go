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

// GameHandler serves the game catalogue
type GameHandler struct {
	games service.GameService
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(games service.GameService) *GameHandler {
	return &GameHandler{games: games}
}

// Lobby handles GET /api/v1/games
func (h *GameHandler) Lobby(c *gin.Context) {
	result, err := h.games.List(c.Request.Context(), false)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// List handles GET /api/v1/admin/games; ?all=true includes inactive games
func (h *GameHandler) List(c *gin.Context) {
	result, err := h.games.List(c.Request.Context(), c.Query("all") == "true")
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Stats handles GET /api/v1/admin/games/stats
func (h *GameHandler) Stats(c *gin.Context) {
	result, err := h.games.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Get handles GET /api/v1/admin/games/:idOrSlug
func (h *GameHandler) Get(c *gin.Context) {
	result, err := h.games.Get(c.Request.Context(), c.Param("idOrSlug"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Create handles POST /api/v1/admin/games
func (h *GameHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.game.create")
	defer span.End()

	var req dto.CreateGameRequest
	if !bindJSON(c, &req) {
		return
	}
	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeValidationFailed, msg))
		return
	}
	span.SetAttributes(attribute.String("game.slug", req.Slug))

	result, err := h.games.Create(ctx, actorFrom(c), &req)
	if err != nil {
		telemetry.RecordError(span, err)
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, response.Success(result))
}

// Update handles PATCH /api/v1/admin/games/:idOrSlug
func (h *GameHandler) Update(c *gin.Context) {
	var req dto.UpdateGameRequest
	if !bindJSON(c, &req) {
		return
	}
	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeValidationFailed, msg))
		return
	}

	result, err := h.games.Update(c.Request.Context(), actorFrom(c), c.Param("idOrSlug"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Delete handles DELETE /api/v1/admin/games/:idOrSlug
func (h *GameHandler) Delete(c *gin.Context) {
	if err := h.games.Delete(c.Request.Context(), actorFrom(c), c.Param("idOrSlug")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.MessageResponse{Message: "Game deleted successfully"}))
}

// GameInstanceHandler serves companies' game instances
type GameInstanceHandler struct {
	instances service.GameInstanceService
}

// NewGameInstanceHandler creates a new GameInstanceHandler
func NewGameInstanceHandler(instances service.GameInstanceService) *GameInstanceHandler {
	return &GameInstanceHandler{instances: instances}
}

// List handles GET /api/v1/admin/game-instances
func (h *GameInstanceHandler) List(c *gin.Context) {
	var query dto.ListGameInstancesQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.instances.List(c.Request.Context(), actorFrom(c), &query)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Get handles GET /api/v1/admin/game-instances/:id
func (h *GameInstanceHandler) Get(c *gin.Context) {
	result, err := h.instances.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Create handles POST /api/v1/admin/game-instances
func (h *GameInstanceHandler) Create(c *gin.Context) {
	var req dto.CreateGameInstanceRequest
	if !bindJSON(c, &req) {
		return
	}
	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeValidationFailed, msg))
		return
	}

	result, err := h.instances.Create(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(result))
}

// Update handles PATCH /api/v1/admin/game-instances/:id
func (h *GameInstanceHandler) Update(c *gin.Context) {
	var req dto.UpdateGameInstanceRequest
	if !bindJSON(c, &req) {
		return
	}
	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeValidationFailed, msg))
		return
	}

	result, err := h.instances.Update(c.Request.Context(), actorFrom(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Delete handles DELETE /api/v1/admin/game-instances/:id
func (h *GameInstanceHandler) Delete(c *gin.Context) {
	if err := h.instances.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.MessageResponse{Message: "Game instance deleted successfully"}))
}

// ScoreHandler records member plays
type ScoreHandler struct {
	scores service.ScoreService
}

// NewScoreHandler creates a new ScoreHandler
func NewScoreHandler(scores service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

// Submit handles POST /api/v1/member/scores
func (h *ScoreHandler) Submit(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.score.submit")
	defer span.End()

	var req dto.SubmitScoreRequest
	if !bindJSON(c, &req) {
		return
	}

	claims, _ := middleware.GetClaims(c)
	player := service.Player{MemberID: claims.UserID(), Impersonated: claims.IsImpersonated}
	span.SetAttributes(telemetry.MemberIDAttr(player.MemberID), attribute.String("instance_slug", req.InstanceSlug))

	result, err := h.scores.Submit(ctx, player, &req)
	if err != nil {
		telemetry.RecordError(span, err)
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, response.Success(result))
}

// ListMine handles GET /api/v1/member/scores
func (h *ScoreHandler) ListMine(c *gin.Context) {
	memberID, _ := middleware.GetUserID(c)

	result, err := h.scores.ListMine(c.Request.Context(), memberID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

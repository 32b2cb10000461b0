package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/service"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/middleware"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// stubs embed the service interface; calling an unstubbed method panics

type stubPrizeTypes struct {
	service.PrizeTypeService
	created *dto.CreatePrizeTypeRequest
	listed  []string
}

func (s *stubPrizeTypes) Create(_ context.Context, req *dto.CreatePrizeTypeRequest) (*domain.PrizeType, error) {
	s.created = req
	return &domain.PrizeType{ID: "pt-1", Name: req.Name, Slug: req.Slug, Strategy: req.Strategy, CompanyID: req.CompanyID}, nil
}

func (s *stubPrizeTypes) FindAll(_ context.Context, companyID string) ([]*domain.PrizeType, error) {
	s.listed = append(s.listed, companyID)
	return []*domain.PrizeType{{ID: "pt-1", Slug: "points", CompanyID: &companyID}}, nil
}

type stubExternalAuth struct {
	service.ExternalAuthService
	err error
}

func (s *stubExternalAuth) Authenticate(_ context.Context, req *dto.ExternalAuthRequest, _ service.ClientInfo) (*dto.MemberTokenResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.MemberTokenResponse{AccessToken: "tok", Member: dto.MemberSummary{ID: "m-1", Username: req.Username}}, nil
}

type stubAuth struct {
	service.AuthService
}

func (s *stubAuth) Login(context.Context, *dto.LoginRequest, service.ClientInfo) (*dto.LoginResponse, error) {
	return nil, service.ErrInvalidCredentials
}

type stubMembers struct {
	service.MemberService
	statusArg  *bool
	statusSeen bool
}

func (s *stubMembers) Get(_ context.Context, _ *service.Actor, id string) (*dto.MemberResponse, error) {
	return &dto.MemberResponse{ID: id, CompanyID: "c-1"}, nil
}

func (s *stubMembers) SetStatus(_ context.Context, _ *service.Actor, id string, isActive *bool) (*dto.MemberResponse, error) {
	s.statusSeen = true
	s.statusArg = isActive
	return &dto.MemberResponse{ID: id}, nil
}

type stubGames struct {
	service.GameService
	listedAll []bool
	created   *dto.CreateGameRequest
}

func (s *stubGames) List(_ context.Context, all bool) ([]*domain.Game, error) {
	s.listedAll = append(s.listedAll, all)
	return []*domain.Game{{ID: "g-1", Slug: "spin-wheel", IsActive: true}}, nil
}

func (s *stubGames) Create(_ context.Context, _ *service.Actor, req *dto.CreateGameRequest) (*domain.Game, error) {
	s.created = req
	return &domain.Game{ID: "g-2", Name: req.Name, Slug: req.Slug}, nil
}

func (s *stubGames) Delete(context.Context, *service.Actor, string) error {
	return service.ErrGameInUse
}

type stubInstances struct {
	service.GameInstanceService
	actor *service.Actor
}

func (s *stubInstances) List(_ context.Context, actor *service.Actor, query *dto.ListGameInstancesQuery) (*dto.PageResponse[*domain.GameInstance], error) {
	s.actor = actor
	return dto.NewPageResponse([]*domain.GameInstance{}, 0, 1, 20), nil
}

func (s *stubInstances) Create(_ context.Context, actor *service.Actor, req *dto.CreateGameInstanceRequest) (*domain.GameInstance, error) {
	s.actor = actor
	return &domain.GameInstance{ID: "i-1", GameID: req.GameID, CompanyID: actor.CompanyID, Slug: req.Slug}, nil
}

func (s *stubInstances) Get(_ context.Context, _ *service.Actor, id string) (*domain.GameInstance, error) {
	switch id {
	case "i-1":
		return &domain.GameInstance{ID: id, CompanyID: "c-1"}, nil
	case "i-2":
		return &domain.GameInstance{ID: id, CompanyID: "c-2"}, nil
	}
	return nil, service.ErrGameInstanceNotFound
}

type stubMemberPrizes struct {
	service.MemberPrizeService
	awarded *dto.AwardPrizeRequest
}

func (s *stubMemberPrizes) AwardPrize(_ context.Context, req *dto.AwardPrizeRequest) (*domain.MemberPrize, error) {
	s.awarded = req
	return &domain.MemberPrize{ID: "p-1", MemberID: req.MemberID, InstanceID: req.InstanceID, Status: domain.PrizeStatusPending}, nil
}

type stubScores struct {
	service.ScoreService
	player service.Player
	req    *dto.SubmitScoreRequest
}

func (s *stubScores) Submit(_ context.Context, player service.Player, req *dto.SubmitScoreRequest) (*dto.SubmitScoreResponse, error) {
	s.player = player
	s.req = req
	return &dto.SubmitScoreResponse{Score: &domain.Score{ID: "s-1", MemberID: player.MemberID, Score: req.Score}}, nil
}

type testEnv struct {
	engine     *gin.Engine
	prizeTypes *stubPrizeTypes
	external   *stubExternalAuth
	members    *stubMembers
	prizes     *stubMemberPrizes
	games      *stubGames
	instances  *stubInstances
	scores     *stubScores
}

func newTestEnv() *testEnv {
	env := &testEnv{
		prizeTypes: &stubPrizeTypes{},
		external:   &stubExternalAuth{},
		members:    &stubMembers{},
		prizes:     &stubMemberPrizes{},
		games:      &stubGames{},
		instances:  &stubInstances{},
		scores:     &stubScores{},
	}

	handlers := &Handlers{
		Auth:        NewAuthHandler(&stubAuth{}, nil),
		MemberAuth:  NewMemberAuthHandler(env.external, env.members),
		Members:     NewMemberHandler(env.members),
		MemberPrize: NewMemberPrizeHandler(env.prizes, env.members, env.instances),
		PrizeTypes:  NewPrizeTypeHandler(env.prizeTypes),
		Games:       NewGameHandler(env.games),
		Instances:   NewGameInstanceHandler(env.instances),
		Scores:      NewScoreHandler(env.scores),
		Companies:   NewCompanyHandler(nil),
		Users:       NewUserHandler(nil, nil),
		Roles:       NewRoleHandler(nil),
		AuditLogs:   NewAuditLogHandler(nil),
		Settings:    NewSettingsHandler(nil),
		Seed:        NewSeedHandler(nil, nil),
		Health:      NewHealthHandler(nil),
	}

	env.engine = gin.New()
	NewRouter(handlers, RouterConfig{
		JWTSecret: testSecret,
		RateLimit: middleware.DefaultRateLimitConfig(),
		CORS:      middleware.DefaultCORSConfig(),
	}).SetupRoutes(env.engine)
	return env
}

func token(t *testing.T, claims *middleware.Claims) string {
	t.Helper()
	if claims.Subject == "" {
		claims.RegisteredClaims = jwt.RegisteredClaims{Subject: "user-1"}
	}
	tok, err := middleware.GenerateToken(testSecret, claims, time.Hour)
	require.NoError(t, err)
	return tok
}

func (env *testEnv) do(method, path, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", service.ErrMemberNotFound, http.StatusNotFound, response.ErrCodeNotFound, "member not found"},
		{"wrapped duplicate", fmt.Errorf("create: %w", service.ErrPrizeTypeExists), http.StatusConflict, response.ErrCodeDuplicateEntry, "create: prize type with this slug already exists"},
		{"detail message", &service.DetailError{Kind: service.ErrAccessDenied, Message: "No company selected"}, http.StatusForbidden, response.ErrCodeForbidden, "No company selected"},
		{"bad signature", service.ErrInvalidSignature, http.StatusUnauthorized, response.ErrCodeInvalidSignature, "invalid signature"},
		{"game in use", service.ErrGameInUse, http.StatusConflict, response.ErrCodeConflict, "game is used by game instances"},
		{"transition", service.ErrInvalidTransition, http.StatusUnprocessableEntity, response.ErrCodeInvalidTransition, "invalid prize status transition"},
		{"unknown error hidden", errors.New("pq: connection reset"), http.StatusInternalServerError, response.ErrCodeInternalError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			handleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Error.Message)
			}
			assert.NotContains(t, w.Body.String(), "connection reset")
		})
	}
}

func TestActorFrom(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, &service.Actor{}, actorFrom(c))

	middleware.SetClaims(c, &middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
		Email:            "admin@example.com",
		CurrentCompanyID: "c-1",
		CurrentRoleLevel: 80,
		Permissions:      []string{"members:read"},
	})
	actor := actorFrom(c)
	assert.Equal(t, "u-1", actor.UserID)
	assert.Equal(t, "admin@example.com", actor.UserName)
	assert.Equal(t, "c-1", actor.CompanyID)
	assert.Equal(t, 80, actor.RoleLevel)
	assert.False(t, actor.IsSuperAdmin)
}

func TestAdminRouteGuards(t *testing.T) {
	env := newTestEnv()

	tests := []struct {
		name   string
		bearer string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"member token", token(t, &middleware.Claims{Role: middleware.RoleMember, CompanyID: "c-1"}), http.StatusForbidden},
		{"admin without permission", token(t, &middleware.Claims{CurrentCompanyID: "c-1", Permissions: []string{"members:read"}}), http.StatusForbidden},
		{"admin with read", token(t, &middleware.Claims{CurrentCompanyID: "c-1", Permissions: []string{"games:read"}}), http.StatusOK},
		{"admin with manage", token(t, &middleware.Claims{CurrentCompanyID: "c-1", Permissions: []string{"games:manage"}}), http.StatusOK},
		{"super admin", token(t, &middleware.Claims{IsSuperAdmin: true}), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/api/v1/admin/prizes/types", "", tt.bearer)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestMemberRoutesRejectAdminTokens(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodGet, "/api/v1/member/prizes", "", token(t, &middleware.Claims{IsSuperAdmin: true}))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPrizeTypeCreate_ForcesCurrentCompany(t *testing.T) {
	body := `{"name":"Bonus","slug":"bonus","strategy":"balance_credit","companyId":"33333333-3333-3333-3333-333333333333"}`

	t.Run("company admin", func(t *testing.T) {
		env := newTestEnv()
		tok := token(t, &middleware.Claims{CurrentCompanyID: "c-1", Permissions: []string{"games:manage"}})

		w := env.do(http.MethodPost, "/api/v1/admin/prizes/types", body, tok)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NotNil(t, env.prizeTypes.created.CompanyID)
		assert.Equal(t, "c-1", *env.prizeTypes.created.CompanyID)
	})

	t.Run("super admin keeps requested company", func(t *testing.T) {
		env := newTestEnv()
		tok := token(t, &middleware.Claims{IsSuperAdmin: true})

		w := env.do(http.MethodPost, "/api/v1/admin/prizes/types", body, tok)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NotNil(t, env.prizeTypes.created.CompanyID)
		assert.Equal(t, "33333333-3333-3333-3333-333333333333", *env.prizeTypes.created.CompanyID)
	})

	t.Run("super admin without company creates a global type", func(t *testing.T) {
		env := newTestEnv()
		tok := token(t, &middleware.Claims{IsSuperAdmin: true})

		w := env.do(http.MethodPost, "/api/v1/admin/prizes/types", `{"name":"Bonus","slug":"bonus","strategy":"balance_credit"}`, tok)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Nil(t, env.prizeTypes.created.CompanyID)
	})

	t.Run("invalid strategy", func(t *testing.T) {
		env := newTestEnv()
		tok := token(t, &middleware.Claims{IsSuperAdmin: true})

		w := env.do(http.MethodPost, "/api/v1/admin/prizes/types", `{"name":"Bonus","slug":"bonus","strategy":"lottery"}`, tok)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, response.ErrCodeValidationFailed, decode(t, w).Error.Code)
		assert.Nil(t, env.prizeTypes.created)
	})
}

func TestPrizeTypes_MalformedCompanyID(t *testing.T) {
	super := token(t, &middleware.Claims{IsSuperAdmin: true})

	t.Run("query", func(t *testing.T) {
		env := newTestEnv()

		w := env.do(http.MethodGet, "/api/v1/admin/prizes/types?companyId=not-a-uuid", "", super)

		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.Equal(t, response.ErrCodeBadRequest, decode(t, w).Error.Code)
		assert.Empty(t, env.prizeTypes.listed)
	})

	t.Run("body", func(t *testing.T) {
		env := newTestEnv()

		w := env.do(http.MethodPost, "/api/v1/admin/prizes/types",
			`{"name":"Bonus","slug":"bonus","strategy":"balance_credit","companyId":"c-other"}`, super)

		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.Nil(t, env.prizeTypes.created)
	})

	t.Run("company admin query is ignored", func(t *testing.T) {
		env := newTestEnv()
		tok := token(t, &middleware.Claims{CurrentCompanyID: "c-1", Permissions: []string{"games:read"}})

		w := env.do(http.MethodGet, "/api/v1/admin/prizes/types?companyId=not-a-uuid", "", tok)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, []string{"c-1"}, env.prizeTypes.listed)
	})

	t.Run("valid query", func(t *testing.T) {
		env := newTestEnv()

		w := env.do(http.MethodGet, "/api/v1/admin/prizes/types?companyId=33333333-3333-3333-3333-333333333333", "", super)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, []string{"33333333-3333-3333-3333-333333333333"}, env.prizeTypes.listed)
	})
}

func TestExternalAuth(t *testing.T) {
	body := `{"companySlug":"acme","externalId":"p-1","username":"alice","timestamp":1700000000000,"signature":"abc"}`

	t.Run("success", func(t *testing.T) {
		env := newTestEnv()

		w := env.do(http.MethodPost, "/api/v1/auth/external", body, "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"access_token":"tok"`)
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("bad signature", func(t *testing.T) {
		env := newTestEnv()
		env.external.err = service.ErrInvalidSignature

		w := env.do(http.MethodPost, "/api/v1/auth/external", body, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, response.ErrCodeInvalidSignature, decode(t, w).Error.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		env := newTestEnv()

		w := env.do(http.MethodPost, "/api/v1/auth/external", `{"companySlug":"acme"}`, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPost, "/api/v1/auth/login", `{"email":"a@example.com","password":"wrong"}`, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, response.ErrCodeUnauthorized, resp.Error.Code)
}

func TestToggleStatus(t *testing.T) {
	tok := token(t, &middleware.Claims{CurrentCompanyID: "c-1", CurrentRoleLevel: middleware.RoleLevelStaff})

	t.Run("empty body flips", func(t *testing.T) {
		env := newTestEnv()

		w := env.do(http.MethodPatch, "/api/v1/admin/members/m-1/toggle-status", "", tok)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, env.members.statusSeen)
		assert.Nil(t, env.members.statusArg)
	})

	t.Run("explicit value", func(t *testing.T) {
		env := newTestEnv()

		w := env.do(http.MethodPatch, "/api/v1/admin/members/m-1/toggle-status", `{"isActive":false}`, tok)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NotNil(t, env.members.statusArg)
		assert.False(t, *env.members.statusArg)
	})

	t.Run("operator below staff", func(t *testing.T) {
		env := newTestEnv()
		operator := token(t, &middleware.Claims{CurrentCompanyID: "c-1", CurrentRoleLevel: middleware.RoleLevelOperator})

		w := env.do(http.MethodPatch, "/api/v1/admin/members/m-1/toggle-status", "", operator)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, env.members.statusSeen)
	})
}

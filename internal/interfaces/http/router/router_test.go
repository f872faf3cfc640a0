package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/infrastructure/auth"
	"github.com/pathway/backend/internal/infrastructure/config"
	"github.com/pathway/backend/internal/infrastructure/telemetry"
	"github.com/pathway/backend/internal/interfaces/http/handler"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithPrefix("/api"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	r.Setup()

	req := httptest.NewRequest("GET", "/api/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("admin", "/admin")
		assert.Equal(t, "admin", g.Name())
		assert.Equal(t, "/admin", g.Prefix())
	})

	t.Run("subgroup middleware stays in the subgroup", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/open", func(c *gin.Context) { c.String(http.StatusOK, "open") })
		guarded := g.Group("guarded", "", func(c *gin.Context) {
			c.AbortWithStatus(http.StatusUnauthorized)
		})
		guarded.GET("/closed", func(c *gin.Context) { c.String(http.StatusOK, "closed") })
		g.RegisterRoutes(engine.Group("/api"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/test/open", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/test/closed", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("router middleware applies to every group", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine).Use(func(c *gin.Context) {
			c.Header("X-Seen", "yes")
			c.Next()
		})
		g := NewDomainGroup("test", "/test")
		g.PATCH("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })
		r.Register(g).Setup()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("PATCH", "/api/test/items/42", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "42", w.Body.String())
		assert.Equal(t, "yes", w.Header().Get("X-Seen"))
	})
}

func TestDomainGroup_Routes(t *testing.T) {
	noop := func(c *gin.Context) {}
	g := NewDomainGroup("intake", "/intake")
	g.POST("", noop)
	g.GET("/track/:code", noop)
	g.Group("session", "", noop).PUT("/me", noop)

	assert.Equal(t, []string{
		"GET /intake/track/:code",
		"POST /intake",
		"PUT /intake/me",
	}, g.Routes())
	assert.NoError(t, g.Validate())

	g.GET("/track/:code", noop)
	assert.ErrorContains(t, g.Validate(), "GET /intake/track/:code")
}

func TestSurfaces_NoDuplicateRoutes(t *testing.T) {
	var h Handlers
	var g Guards
	for _, surface := range []*DomainGroup{AdminRoutes(h, g), PDRoutes(h, g), IntakeRoutes(h, g)} {
		require.NoError(t, surface.Validate(), surface.Name())
	}

	admin := AdminRoutes(h, g).Routes()
	assert.Contains(t, admin, "PATCH /admin/cases/:id/status")
	assert.Contains(t, admin, "POST /admin/cases/:id/assign")
	assert.Contains(t, admin, "POST /admin/outbox/dead/:id/retry")
	assert.Contains(t, PDRoutes(h, g).Routes(), "POST /pd/application")
}

type engineFixture struct {
	engine *gin.Engine
	jwt    *auth.JWTService
}

// newEngineFixture builds the full engine around handlers with no services.
// Only requests stopped by middleware or binding may be sent through it.
func newEngineFixture(t *testing.T, checks map[string]HealthCheck) *engineFixture {
	t.Helper()
	cookie := config.CookieConfig{Name: "pathway_session", Path: "/", SameSite: "lax"}
	jwt := auth.NewJWTService(config.JWTConfig{
		Secret:                "router-test-secret-at-least-32-chars",
		AccessTokenExpiration: time.Hour,
		Issuer:                "pathway-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	session := func(subject auth.SubjectType) gin.HandlerFunc {
		return middleware.Session(middleware.SessionConfig{
			JWT:        jwt,
			Blacklist:  blacklist,
			CookieName: middleware.CookieName(cookie.Name, subject),
			Subject:    subject,
		})
	}

	engine := NewEngine(EngineConfig{
		App:     config.AppConfig{Name: "pathway-test", Env: "test"},
		HTTP:    config.HTTPConfig{MaxBodySize: 1 << 20, CORSAllowOrigins: []string{"https://admin.example.com"}},
		Metrics: telemetry.NewMetrics(),
		Handlers: Handlers{
			AdminAuth:    handler.NewAuthHandler(nil, cookie, auth.SubjectAdmin),
			PDAuth:       handler.NewAuthHandler(nil, cookie, auth.SubjectPD),
			Dashboard:    handler.NewDashboardHandler(nil),
			Cases:        handler.NewCaseHandler(nil, nil, nil, nil),
			Worklist:     handler.NewWorklistHandler(nil, nil),
			Pools:        handler.NewPoolHandler(nil),
			PDs:          handler.NewPDHandler(nil),
			Applications: handler.NewApplicationHandler(nil),
			Channels:     handler.NewChannelHandler(nil),
			Earnings:     handler.NewEarningsHandler(nil),
			Audit:        handler.NewAuditHandler(nil),
			Users:        handler.NewUserHandler(nil),
			Outbox:       handler.NewOutboxHandler(nil),
			Intake:       handler.NewIntakeHandler(nil),
			Portal:       handler.NewPortalHandler(nil, nil, nil),
		},
		Guards: Guards{
			AdminSession: session(auth.SubjectAdmin),
			PDSession:    session(auth.SubjectPD),
			LoginLimit:   middleware.RateLimit(middleware.NewMemoryLimiter(1, time.Minute), middleware.ByRouteAndIP),
		},
		Checks: checks,
	})
	return &engineFixture{engine: engine, jwt: jwt}
}

func (f *engineFixture) token(t *testing.T, subject auth.SubjectType, perms ...string) string {
	t.Helper()
	s, err := f.jwt.IssueSession(auth.SessionInput{
		SubjectType: subject,
		SubjectID:   uuid.New(),
		Email:       "someone@example.com",
		Permissions: perms,
	})
	require.NoError(t, err)
	return s.Token
}

func (f *engineFixture) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestNewEngine_RouteTable(t *testing.T) {
	f := newEngineFixture(t, nil)

	registered := map[string]bool{}
	for _, r := range f.engine.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"GET /metrics",
		"POST /api/admin/auth/login",
		"GET /api/admin/cases/export",
		"POST /api/admin/cases/:id/pool",
		"POST /api/admin/outbox/dead/retry",
		"POST /api/admin/outbox/dead/:id/retry",
		"POST /api/pd/application",
		"PUT /api/pd/application/:id/steps/:step",
		"POST /api/pd/pool/:caseId/claim",
		"GET /api/pd/earnings/summary",
		"POST /api/intake",
		"GET /api/intake/track/:code",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
}

func TestNewEngine_AdminGuards(t *testing.T) {
	f := newEngineFixture(t, nil)

	t.Run("no session", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/admin/cases", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing permission", func(t *testing.T) {
		token := f.token(t, auth.SubjectAdmin, identity.PermCasesRead)
		w := f.do(http.MethodGet, "/api/admin/cases/export", token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("pd session on admin api", func(t *testing.T) {
		token := f.token(t, auth.SubjectPD, identity.PermPDPortal)
		w := f.do(http.MethodGet, "/api/admin/cases", token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("bad id reaches the handler", func(t *testing.T) {
		token := f.token(t, auth.SubjectAdmin, identity.PermCasesRead)
		w := f.do(http.MethodGet, "/api/admin/cases/not-a-uuid", token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNewEngine_PortalGuards(t *testing.T) {
	f := newEngineFixture(t, nil)

	admin := f.token(t, auth.SubjectAdmin, identity.PermCasesRead)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/pd/cases", admin).Code)

	noPortal := f.token(t, auth.SubjectPD)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/pd/cases", noPortal).Code)

	pd := f.token(t, auth.SubjectPD, identity.PermPDPortal)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/pd/cases/not-a-uuid", pd).Code)
}

func TestNewEngine_LoginRateLimit(t *testing.T) {
	f := newEngineFixture(t, nil)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/auth/login", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusBadRequest, post().Code)
	w := post()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
}

func TestNewEngine_Health(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks map[string]HealthCheck
		code   int
		status string
	}{
		{"healthy", map[string]HealthCheck{"database": ok, "redis": ok}, http.StatusOK, `"status":"healthy"`},
		{"redis down", map[string]HealthCheck{"database": ok, "redis": down}, http.StatusOK, `"status":"degraded"`},
		{"database down", map[string]HealthCheck{"database": down, "redis": ok}, http.StatusServiceUnavailable, `"status":"unhealthy"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, tt.checks)
			w := f.do(http.MethodGet, "/health", "")
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.status)
		})
	}
}

func TestNewEngine_MetricsAndHeaders(t *testing.T) {
	f := newEngineFixture(t, nil)

	w := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pathway_http_requests_total")
}

func TestNewEngine_CORSPreflight(t *testing.T) {
	f := newEngineFixture(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/admin/cases", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, "https://admin.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pathway/backend/internal/infrastructure/config"
	"github.com/pathway/backend/internal/infrastructure/logger"
	"github.com/pathway/backend/internal/infrastructure/telemetry"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// EngineConfig carries everything NewEngine needs
type EngineConfig struct {
	App       config.AppConfig
	HTTP      config.HTTPConfig
	Telemetry config.TelemetryConfig

	Logger         *zap.Logger
	Metrics        *telemetry.Metrics
	TracerProvider trace.TracerProvider

	Handlers Handlers
	Guards   Guards

	// Checks run on GET /health; a failing "database" check marks the
	// service unhealthy, any other failure only degrades it
	Checks map[string]HealthCheck
}

// NewEngine builds the gin engine with the global middleware chain, the
// ops endpoints and every API surface
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.TracerProvider))
		engine.Use(middleware.SpanAttributes())
	}
	engine.Use(logger.GinMiddleware(log))
	if cfg.Metrics != nil {
		engine.Use(middleware.Metrics(cfg.Metrics))
	}
	engine.Use(middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.Secure(middleware.SecurityConfigFor(cfg.App)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", healthHandler(cfg.Checks))
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := NewRouter(engine)
	for _, surface := range []*DomainGroup{
		AdminRoutes(cfg.Handlers, cfg.Guards),
		PDRoutes(cfg.Handlers, cfg.Guards),
		IntakeRoutes(cfg.Handlers, cfg.Guards),
	} {
		if err := surface.Validate(); err != nil {
			log.Panic("Invalid route table", zap.Error(err))
		}
		log.Debug("API surface mounted",
			zap.String("surface", surface.Name()),
			zap.Int("routes", len(surface.Routes())),
		)
		api.Register(surface)
	}
	api.Setup()

	return engine
}

// healthHandler returns a handler for health check endpoints
func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "healthy"
		code := http.StatusOK
		results := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.GetGinLogger(c).Warn("Health check failed", zap.String("check", name), zap.Error(err))
				results[name] = "error"
				if name == "database" {
					status, code = "unhealthy", http.StatusServiceUnavailable
				} else if code == http.StatusOK {
					status = "degraded"
				}
				continue
			}
			results[name] = "ok"
		}

		c.JSON(code, gin.H{
			"status": status,
			"time":   time.Now().UTC().Format(time.RFC3339),
			"checks": results,
		})
	}
}

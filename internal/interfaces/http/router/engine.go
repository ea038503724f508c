package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/logger"
	"github.com/diegoaa53-dot/bsale-api/internal/interfaces/http/middleware"
)

// EngineConfig configures the middleware chain of NewEngine
type EngineConfig struct {
	Logger         *zap.Logger
	Tracing        middleware.TracingConfig
	RequestTimeout time.Duration
	// RateLimiter is optional
	RateLimiter *middleware.RateLimiter
}

// NewEngine creates a gin engine with recovery, request IDs, tracing, request
// logging and the request timeout installed, in that order
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.TracingWithConfig(cfg.Tracing),
		middleware.SpanRequestID(),
		middleware.SpanErrorMarker(),
		logger.GinMiddleware(log),
		middleware.Timeout(cfg.RequestTimeout),
	)
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	return engine
}

// RegisterRoot mounts registrar outside the versioned API group
func (r *Router) RegisterRoot(registrar RouteRegistrar) *Router {
	registrar.RegisterRoutes(&r.engine.RouterGroup)
	return r
}

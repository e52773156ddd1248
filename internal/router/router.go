package router

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/formkit/internal/handler"
	promhandler "github.com/jwalitptl/formkit/internal/handler/prometheus"
	"github.com/jwalitptl/formkit/internal/middleware"
	"github.com/jwalitptl/formkit/pkg/validator"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine   *gin.Engine
	h        *handler.Handler
	handlers []Handler
	metrics  *promhandler.Handler
	config   RouterConfig
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        middleware.RateLimiterConfig
	CORSConfig       middleware.CORSConfig
	Security         middleware.SecurityConfig
	MaxBodyBytes     int64
	// MetricsPath serves the registry; empty disables the endpoint.
	MetricsPath string
}

// NewRouter builds the engine and its middleware chain. metrics may be nil.
func NewRouter(h *handler.Handler, metrics *promhandler.Handler, config RouterConfig, handlers ...Handler) (*Router, error) {
	if err := middleware.RegisterBindingValidators(); err != nil {
		return nil, err
	}

	engine := gin.New()

	r := &Router{
		engine:   engine,
		h:        h,
		handlers: handlers,
		metrics:  metrics,
		config:   config,
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)
	if metrics != nil {
		engine.Use(metrics.Middleware())
	}
	engine.Use(
		middleware.ErrorHandler(),
		middleware.Validation(validator.New()),
		middleware.SecurityHeaders(config.Security),
		middleware.CORS(config.CORSConfig),
	)
	if config.MaxBodyBytes > 0 {
		engine.Use(middleware.SizeLimit(config.MaxBodyBytes))
	}
	if config.RateLimitEnabled {
		engine.Use(middleware.NewRateLimiter(config.RateLimit).RateLimit())
	}

	return r, nil
}

func (r *Router) Setup() {
	if r.metrics != nil && r.config.MetricsPath != "" {
		r.engine.GET(r.config.MetricsPath, r.metrics.Handler())
	}

	api := r.engine.Group("/api/v1")

	// Add version header
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.h.RegisterRoutes(api)
	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

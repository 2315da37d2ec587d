package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/trials-api/internal/config"
	"github.com/jwalitptl/trials-api/internal/middleware"
	"github.com/jwalitptl/trials-api/pkg/metrics"
	"github.com/jwalitptl/trials-api/pkg/validator"
)

const APIVersion = "1.0"

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// MetricsHandler serves the Prometheus scrape endpoint.
type MetricsHandler interface {
	Handler() gin.HandlerFunc
}

type RouterConfig struct {
	APIPrefix   string
	RateLimit   config.RateLimitConfig
	MaxBodySize int64
	// MetricsPath is mounted outside the API prefix; empty disables it.
	MetricsPath string
}

type Router struct {
	engine   *gin.Engine
	config   RouterConfig
	metrics  *metrics.Metrics
	health   Handler
	handlers []Handler
	scrape   MetricsHandler
}

// NewRouter builds the engine and its global middleware. m and scrape may
// be nil when metrics are disabled.
func NewRouter(cfg RouterConfig, m *metrics.Metrics, scrape MetricsHandler, health Handler, handlers ...Handler) *Router {
	validator.Setup()

	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = middleware.DefaultMaxBodySize
	}

	engine := gin.New() // Use New() instead of Default() for more control
	engine.HandleMethodNotAllowed = true

	r := &Router{
		engine:   engine,
		config:   cfg,
		metrics:  m,
		health:   health,
		handlers: handlers,
		scrape:   scrape,
	}

	// Add core middlewares
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		r.metricsMiddleware(),
		middleware.CORS(),
		middleware.ErrorHandler(),
		middleware.SizeLimit(cfg.MaxBodySize),
	)

	if cfg.RateLimit.Enabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   cfg.RateLimit.RequestsPerSecond,
			Burst: cfg.RateLimit.Burst,
			TTL:   cfg.RateLimit.TTL,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	if r.scrape != nil && r.config.MetricsPath != "" {
		r.engine.GET(r.config.MetricsPath, r.scrape.Handler())
	}

	api := r.engine.Group(r.config.APIPrefix)
	api.Use(middleware.APIVersion(APIVersion))

	if r.health != nil {
		r.health.RegisterRoutes(api)
	}
	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.metrics == nil {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			class := "client"
			if c.Writer.Status() >= 500 {
				class = "server"
			}
			r.metrics.ErrorTotal.WithLabelValues(c.Request.Method, path, class).Inc()
		}
	}
}

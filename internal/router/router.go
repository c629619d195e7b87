package router

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pulse-api/internal/config"
	authHandler "github.com/jwalitptl/pulse-api/internal/handler/auth"
	"github.com/jwalitptl/pulse-api/internal/handler/health"
	promHandler "github.com/jwalitptl/pulse-api/internal/handler/prometheus"
	"github.com/jwalitptl/pulse-api/internal/middleware"
	"github.com/jwalitptl/pulse-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers groups the route owners mounted under /api/v1.
type Handlers struct {
	Auth         *authHandler.Handler
	Appointment  Handler
	Notification Handler
	LabResult    Handler
	Profile      Handler
	Dashboard    Handler
	Health       *health.Handler
	Metrics      *promHandler.Handler
}

type RouterConfig struct {
	RateLimit config.RateLimitConfig
	CORS      config.CORSConfig
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, m *metrics.Metrics, cfg RouterConfig) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)
	if m != nil {
		engine.Use(middleware.Metrics(m))
	}
	engine.Use(middleware.CORS(cfg.CORS))

	if cfg.RateLimit.Enabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	r.setupOpsRoutes()

	api := r.engine.Group("/api/v1")

	// Public routes
	r.handlers.Auth.RegisterPublicRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupOpsRoutes() {
	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(r.engine)
	}
	if r.handlers.Metrics != nil {
		r.engine.GET("/metrics", r.handlers.Metrics.Handler())
	}
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.handlers.Auth.RegisterRoutes(rg)
	for _, h := range []Handler{
		r.handlers.Appointment,
		r.handlers.Notification,
		r.handlers.LabResult,
		r.handlers.Profile,
		r.handlers.Dashboard,
	} {
		if h != nil {
			h.RegisterRoutes(rg)
		}
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

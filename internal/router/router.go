package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/handler/appointment"
	"github.com/jwalitptl/clinic-api/internal/handler/auth"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	"github.com/jwalitptl/clinic-api/internal/handler/patient"
	"github.com/jwalitptl/clinic-api/internal/handler/payment"
	"github.com/jwalitptl/clinic-api/internal/handler/prescription"
	"github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-api/internal/handler/report"
	"github.com/jwalitptl/clinic-api/internal/handler/user"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// Handler is a resource handler mounted on the protected group
type Handler interface {
	RegisterRoutes(r *gin.RouterGroup, mw *middleware.AuthMiddleware)
}

// Handlers groups everything the router mounts
type Handlers struct {
	Auth         *auth.Handler
	Health       *health.Handler
	Metrics      *prometheus.Handler
	Patient      *patient.Handler
	Appointment  *appointment.Handler
	Prescription *prescription.Handler
	Payment      *payment.Handler
	User         *user.Handler
	Report       *report.Handler
}

type RouterConfig struct {
	Mode      string
	CORS      config.CORSConfig
	RateLimit config.RateLimitConfig
	Security  middleware.SecurityConfig
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware
	h      Handlers
	config RouterConfig
}

func NewRouter(auth *middleware.AuthMiddleware, h Handlers, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	if config.Metrics == nil {
		config.Metrics = metrics.Nop()
	}
	validator.Register()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(config.Logger, config.Metrics),
		middleware.Recovery(),
		middleware.SecurityHeaders(config.Security),
		middleware.CORS(config.CORS),
	)

	if config.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(rate.Limit(config.RateLimit.RequestsPerSecond), config.RateLimit.Burst, config.RateLimit.TTL)
		engine.Use(limiter.RateLimit())
	}

	return &Router{
		engine: engine,
		auth:   auth,
		h:      h,
		config: config,
	}
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.h.Health.RegisterRoutes(api)
	r.h.Metrics.RegisterRoutes(api)

	protected := api.Group("", r.auth.Protected()...)
	r.h.Auth.RegisterRoutes(api, protected, r.auth, r.loginLimit())

	for _, h := range []Handler{
		r.h.Patient,
		r.h.Appointment,
		r.h.Prescription,
		r.h.Payment,
		r.h.User,
		r.h.Report,
	} {
		h.RegisterRoutes(protected, r.auth)
	}
}

// loginLimit throttles credential guessing separately from the global limit
func (r *Router) loginLimit() gin.HandlerFunc {
	if !r.config.RateLimit.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.NewLoginRateLimiter(r.config.RateLimit.LoginPerMinute, r.config.RateLimit.TTL).RateLimit()
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

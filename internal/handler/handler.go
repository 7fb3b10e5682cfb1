package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/maxviazov/crm-service/internal/service"
)

// Deps bundles everything the HTTP surface needs.
// Limiter may be nil, which disables rate limiting.
type Deps struct {
	Pinger    Pinger
	Verifier  TokenVerifier
	Contacts  service.ContactService
	Deals     service.DealService
	Tasks     service.TaskService
	Dashboard service.DashboardService
	Limiter   *RateLimiter
	Logger    zerolog.Logger
}

// Register mounts middleware and all public routes on the given engine.
func Register(r *gin.Engine, d Deps) {
	r.Use(RequestID(), Recovery(d.Logger), AccessLog(d.Logger), Metrics())

	h := NewHealthHandler(d.Pinger, d.Logger)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Docs endpoints (root-level)
	RegisterDocs(r)

	api := r.Group(APIV1Prefix) // Versioning added via single source of truth
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}

		private := api.Group("", d.Limiter.Middleware(), Authenticate(d.Verifier))
		NewContactHandler(d.Contacts).Register(private)
		NewDealHandler(d.Deals).Register(private)
		NewTaskHandler(d.Tasks).Register(private)
		NewDashboardHandler(d.Dashboard).Register(private)
	}
}

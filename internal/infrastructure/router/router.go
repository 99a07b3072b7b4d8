package router

import (
	"net/http"

	"itinerary-service/internal/interface/api"
	"itinerary-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the HTTP router
type Options struct {
	AllowedOrigins []string
	// Gatherer backs /metrics; nil means the default registry
	Gatherer prometheus.Gatherer
}

// NewRouter builds the gin engine with the job routes, health and metrics
func NewRouter(jobs *api.JobHandler, opts Options, log logger.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		api.LoggerMiddleware(log),
		api.CORSMiddleware(api.CORSConfig{AllowedOrigins: opts.AllowedOrigins}),
	)

	engine.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "Healthy")
	})

	metricsHandler := promhttp.Handler()
	if opts.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})
	}
	engine.GET("/metrics", gin.WrapH(metricsHandler))

	jobs.Register(engine)

	log.Info("Registered routes", "count", len(engine.Routes()))
	return engine
}

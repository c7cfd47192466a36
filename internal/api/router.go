package api

import (
	"net/http"

	"affiliate-registration/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	CORSAllowOrigin    string
	DiagnosticsEnabled bool
	MetricsEnabled     bool
}

// NewRouter wires the API routes. Any method other than POST (or a CORS
// preflight) on /api/affiliates is answered with 405.
func NewRouter(cfg RouterConfig, h *Handlers, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(
		Recovery(log),
		RequestID(),
		AccessLog(log),
		CORS(cfg.CORSAllowOrigin),
		Metrics(),
	)

	router.NoMethod(h.MethodNotAllowed)
	router.NoRoute(h.NotFound)

	api := router.Group("/api")
	api.GET("", h.Index)
	api.GET("/health", h.HealthCheck)
	api.GET("/status", h.Status)
	api.POST("/affiliates", h.RegisterAffiliate)
	api.OPTIONS("/affiliates", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if cfg.DiagnosticsEnabled && h.prober != nil {
		api.GET("/test-sheets", h.TestSheets)
	}
	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	return router
}

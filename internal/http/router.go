package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mzaleski/psesync/internal/database"
)

// NewRouter wires the status server: liveness, run status and Prometheus
// metrics. The reporter may be nil when no scheduler is running.
func NewRouter(db *database.Database, reporter RunReporter, version string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	health := NewHealthController(db, version)
	router.GET("/health", health.Status)

	if reporter != nil {
		status := NewStatusController(reporter)
		router.GET("/status", status.Status)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

package monitoring

import (
	"archiver/src/utils/monitoring/report"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor interface {
	GetReport() *report.Report
	GetPrometheusCollector() prometheus.Collector
	IsOK() bool

	OnGetState(c *gin.Context)
	OnGetHealth(c *gin.Context)
}

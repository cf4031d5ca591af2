package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ImportsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_import_sessions_started_total",
		Help: "Number of import sessions started",
	})
	ImportsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_import_sessions_completed_total",
		Help: "Number of import sessions that completed successfully",
	})
	ImportsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_import_sessions_failed_total",
		Help: "Number of import sessions that ended in failure",
	})
	RowsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_import_rows_accepted_total",
		Help: "Number of rows that passed validation",
	})
	RowsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_import_rows_rejected_total",
		Help: "Number of rows rejected by validation",
	})
	GroupsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_import_groups_created_total",
		Help: "Number of product groups created by imports",
	})
)

// Handler exposes the Prometheus scrape endpoint as a gin handler
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

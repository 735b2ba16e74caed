package graphs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Cloutiere/mermaid/pkg/apperror"
)

// Sync outcomes reported by diagram_sync_total.
const (
	outcomeOK                  = "ok"
	outcomeParseError          = "parse_error"
	outcomeIntegrity           = "integrity_conflict"
	outcomeInternalConsistency = "internal_consistency"
	outcomeError               = "error"
)

var (
	syncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diagram_sync_total",
		Help: "Diagram synchronizations by outcome.",
	}, []string{"outcome"})

	syncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "diagram_sync_duration_seconds",
		Help:    "Time spent parsing and reconciling diagram code.",
		Buckets: prometheus.DefBuckets,
	})

	syncNodesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diagram_sync_nodes_deleted_total",
		Help: "Nodes deleted because they disappeared from diagram code.",
	})
)

func syncOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case apperror.IsCode(err, apperror.ErrParse.Code):
		return outcomeParseError
	case apperror.IsCode(err, apperror.ErrIntegrity.Code):
		return outcomeIntegrity
	case apperror.IsCode(err, apperror.ErrInternalConsistency.Code):
		return outcomeInternalConsistency
	default:
		return outcomeError
	}
}

func observeSync(err error, elapsed time.Duration) {
	syncTotal.WithLabelValues(syncOutcome(err)).Inc()
	syncDuration.Observe(elapsed.Seconds())
}

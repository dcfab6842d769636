package split

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess  = "success"
	outcomeError    = "error"
	outcomeRejected = "rejected"
)

var (
	branchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flow_split_branches_total",
		Help: "Total number of split branches by split and outcome (success, error or rejected)",
	}, []string{"split", "outcome"})

	splitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flow_split_duration_seconds",
		Help:    "Duration of split states from fan-out to aggregation by split and outcome",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"split", "outcome"})
)

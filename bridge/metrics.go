package bridge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	legsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cycler",
		Subsystem: "bridge",
		Name:      "legs_submitted_total",
	}, []string{"from_chain", "to_chain"})

	legsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cycler",
		Subsystem: "bridge",
		Name:      "legs_settled_total",
	}, []string{"from_chain", "to_chain", "result"})

	settlementDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cycler",
		Subsystem: "bridge",
		Name:      "settlement_duration_seconds",
		Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
	}, []string{"from_chain", "to_chain"})
)

func observeLegSubmitted(fromChain, toChain string) {
	legsSubmitted.WithLabelValues(fromChain, toChain).Inc()
}

func observeLegSettled(fromChain, toChain, result string, submittedAt time.Time) {
	legsSettled.WithLabelValues(fromChain, toChain, result).Inc()
	if result == "delivered" {
		settlementDurations.WithLabelValues(fromChain, toChain).Observe(time.Since(submittedAt).Seconds())
	}
}

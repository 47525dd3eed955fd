package order

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var settlementResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cycler",
	Subsystem: "orders",
	Name:      "settlement_results_total",
}, []string{"outcome", "result"})

func observeSettlement(outcome string, s Settlement) {
	settlementResults.WithLabelValues(outcome, s.String()).Inc()
}

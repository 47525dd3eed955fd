package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var walletRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cycler",
	Subsystem: "worker",
	Name:      "wallet_runs_total",
}, []string{"result"})

func observeWalletRun(result string) {
	walletRuns.WithLabelValues(result).Inc()
}

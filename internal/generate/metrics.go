package generate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "report_drafter",
		Name:      "generation_calls_total",
		Help:      "External generation calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	metricCallSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "report_drafter",
		Name:      "generation_call_seconds",
		Help:      "Latency of external generation calls.",
		Buckets:   []float64{1, 2, 5, 10, 20, 40, 80},
	}, []string{"operation"})
)

func observeCall(op Operation, err error, elapsed time.Duration) {
	outcome := "ok"
	switch {
	case IsCredential(err):
		outcome = "credential"
	case err != nil:
		outcome = "error"
	}
	metricCalls.WithLabelValues(string(op), outcome).Inc()
	metricCallSeconds.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

package throttle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "report_drafter",
		Name:      "throttle_waits_total",
		Help:      "Number of times a caller was suspended before an external generation call.",
	})
	metricWaitSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "report_drafter",
		Name:      "throttle_wait_seconds_total",
		Help:      "Total time callers spent suspended by the throttle gate.",
	})
)

func recordWait(d time.Duration) {
	metricWaits.Inc()
	metricWaitSeconds.Add(d.Seconds())
}

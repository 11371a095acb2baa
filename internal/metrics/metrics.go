package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeBusy    = "busy"
	OutcomeSkipped = "skipped"
)

func fqn(name string) string {
	return prometheus.BuildFQName("insc", "testbed", name)
}

var (
	StepTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fqn("step_total"),
			Help: "Workflow steps by outcome",
		},
		[]string{"step", "outcome"},
	)

	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fqn("step_duration"),
			Help:    "Duration of workflow steps in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"step"},
	)

	BlockHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: fqn("block_height"),
		Help: "Last block height observed from the node",
	})

	Balance = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: fqn("balance_sats"),
		Help: "Last balance of the deposit address, narrowed for display",
	})

	InFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: fqn("in_flight"),
			Help: "1 while a guarded action is running",
		},
		[]string{"action"},
	)

	HttpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fqn("http_duration"),
			Help:    "HTTP request duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 5, 15},
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		StepTotal,
		StepDuration,
		BlockHeight,
		Balance,
		InFlight,
		HttpDuration,
	)
}

// ObserveStep records the outcome and duration of one workflow step.
func ObserveStep(step string, started time.Time, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	StepTotal.WithLabelValues(step, outcome).Inc()
	StepDuration.WithLabelValues(step).Observe(time.Since(started).Seconds())
}

// CountStep records an outcome without a duration, for busy or skipped steps.
func CountStep(step, outcome string) {
	StepTotal.WithLabelValues(step, outcome).Inc()
}

func SetInFlight(action string, running bool) {
	v := 0.0
	if running {
		v = 1
	}
	InFlight.WithLabelValues(action).Set(v)
}

// HTTP is a gin middleware observing request latency. FullPath keeps the
// label set bounded to registered routes.
func HTTP(c *gin.Context) {
	started := time.Now()

	c.Next()

	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	HttpDuration.WithLabelValues(
		c.Request.Method,
		path,
		strconv.Itoa(c.Writer.Status()),
	).Observe(time.Since(started).Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}

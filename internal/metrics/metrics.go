package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	authOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_operations_total",
		Help: "Authentication workflow outcomes",
	}, []string{"operation", "result"}) // result: success|failure

	identityRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "identity_request_duration_seconds",
		Help:    "Latency of identity provider calls",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"endpoint"})

	verificationSyncsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "verification_syncs_total",
		Help: "Email verification reconciliation outcomes",
	}, []string{"outcome"}) // outcome: synced|unchanged|missing_local|error
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		authOperationsTotal,
		identityRequestDuration,
		verificationSyncsTotal,
	)
}

// returns the handler for /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// records HTTP request counts and latency per route template
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// records the outcome of an authentication workflow
func RecordAuthOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}

	authOperationsTotal.WithLabelValues(operation, result).Inc()
}

// records the latency of one identity provider call
func ObserveIdentityRequest(endpoint string, seconds float64) {
	identityRequestDuration.WithLabelValues(endpoint).Observe(seconds)
}

// records a reconciliation outcome
func RecordVerificationSync(outcome string) {
	verificationSyncsTotal.WithLabelValues(outcome).Inc()
}

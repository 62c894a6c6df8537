package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Domain counters. Labels stay low-cardinality: status values and
	// categories come from a small fixed vocabulary.
	grievancesSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grievances_submitted_total",
			Help: "Grievances submitted, split by anonymity.",
		},
		[]string{"anonymous"},
	)

	grievancesTransitioned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grievance_transitions_total",
			Help: "Grievance status transitions applied.",
		},
		[]string{"to"},
	)

	verificationCodesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verification_codes_issued_total",
		Help: "One-time verification codes issued.",
	})
)

// Init registers metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		grievancesSubmitted, grievancesTransitioned, verificationCodesIssued,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// CountGrievanceSubmitted records a submitted grievance.
func CountGrievanceSubmitted(anonymous bool) {
	grievancesSubmitted.WithLabelValues(strconv.FormatBool(anonymous)).Inc()
}

// CountGrievanceTransition records an applied status transition.
func CountGrievanceTransition(to string) {
	grievancesTransitioned.WithLabelValues(to).Inc()
}

// CountVerificationCodeIssued records an issued verification code.
func CountVerificationCodeIssued() {
	verificationCodesIssued.Inc()
}

// Instrument wraps a handler with RPS/latency/in-flight measurements.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpInFlight.Dec()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

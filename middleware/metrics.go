package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// UnmatchedRoute labels requests no route matched, keeping label cardinality bounded.
const UnmatchedRoute = "unmatched"

// MetricsConfig configures the metrics middleware.
type MetricsConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool

	// Registerer receives the collectors. Defaults to prometheus.DefaultRegisterer.
	// Collectors already registered under the same names are reused.
	Registerer prometheus.Registerer

	// Namespace prefixes metric names. Defaults to "relay".
	Namespace string

	// Subsystem follows the namespace. Defaults to "http".
	Subsystem string

	// Buckets of the duration histogram in seconds. Defaults to prometheus.DefBuckets.
	Buckets []float64
}

// Metrics records request counts, durations and in-flight requests.
//
//	relay_http_requests_total{method,route,status}
//	relay_http_request_duration_seconds{method,route}
//	relay_http_requests_in_flight
func Metrics() handler.Middleware {
	return MetricsWithConfig(MetricsConfig{})
}

// MetricsWithConfig returns the metrics middleware configured by cfg.
// It panics when the collectors cannot be registered.
func MetricsWithConfig(cfg MetricsConfig) handler.Middleware {
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "relay"
	}

	if cfg.Subsystem == "" {
		cfg.Subsystem = "http"
	}

	if len(cfg.Buckets) == 0 {
		cfg.Buckets = prometheus.DefBuckets
	}

	requests := register(cfg.Registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "requests_total",
		Help:      "Number of handled requests.",
	}, []string{"method", "route", "status"}))

	duration := register(cfg.Registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "request_duration_seconds",
		Help:      "Time spent in the middleware chain.",
		Buckets:   cfg.Buckets,
	}, []string{"method", "route"}))

	inFlight := register(cfg.Registerer, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "requests_in_flight",
		Help:      "Requests currently in the middleware chain.",
	}))

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		if cfg.Skip != nil && cfg.Skip(req) {
			return next()
		}

		start := time.Now()
		inFlight.Inc()
		defer inFlight.Dec()

		out, err := next()

		route := req.RoutePath()
		if route == "" {
			route = UnmatchedRoute
		}
		status := strconv.Itoa(statusOf(out, err))

		requests.WithLabelValues(req.Method(), route, status).Inc()
		duration.WithLabelValues(req.Method(), route).Observe(time.Since(start).Seconds())
		return out, err
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsConfig struct {
	// Skipper leaves a request out of the metrics. Websocket upgrades are
	// always left out, their duration is the connection lifetime.
	Skipper     func(c echo.Context) bool
	Namespace   string
	Buckets     []float64
	MetricsPath string
	// Registry defaults to the process wide prometheus registry.
	Registry *prometheus.Registry
}

const unmatchedRoute = "/not-found"

var DefaultMetricsConfig = MetricsConfig{
	Skipper: func(c echo.Context) bool {
		return c.Path() == "/health"
	},
	Namespace: "team_chat",
	Buckets: []float64{
		0.001, 0.0025, 0.005, 0.01, 0.025, 0.05,
		0.1, 0.25, 0.5, 1, 2.5, 5, 10,
	},
	MetricsPath: "/metrics",
}

type httpMetrics struct {
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// Metrics records request latency per route, counts requests in flight and
// serves the registry on the metrics path.
func Metrics() echo.MiddlewareFunc {
	return MetricsWithConfig(DefaultMetricsConfig)
}

func MetricsWithConfig(config MetricsConfig) echo.MiddlewareFunc {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if config.Registry != nil {
		registerer, gatherer = config.Registry, config.Registry
	}
	m := httpMetrics{
		duration: mustRegister(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent serving a route.",
			Buckets:   config.Buckets,
		}, []string{"code", "method", "route"})),
		inflight: mustRegister(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being served.",
		})),
	}

	var expose echo.HandlerFunc
	if config.MetricsPath != "" {
		expose = echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if expose != nil && req.Method == http.MethodGet && req.URL.Path == config.MetricsPath {
				return expose(c)
			}
			if isUpgrade(req) || (config.Skipper != nil && config.Skipper(c)) {
				return next(c)
			}

			m.inflight.Inc()
			defer m.inflight.Dec()
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			m.duration.
				WithLabelValues(strconv.Itoa(c.Response().Status), req.Method, routeLabel(c)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// routeLabel is the route template, so path parameters do not multiply
// series. Every unmatched path shares one label.
func routeLabel(c echo.Context) string {
	h := c.Handler()
	if c.Path() == "" || h == nil || reflect.ValueOf(h).Pointer() == reflect.ValueOf(echo.NotFoundHandler).Pointer() {
		return unmatchedRoute
	}
	return c.Path()
}

// mustRegister returns the collector already registered under the same
// description, so building the middleware twice is safe.
func mustRegister[C prometheus.Collector](r prometheus.Registerer, c C) C {
	err := r.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}

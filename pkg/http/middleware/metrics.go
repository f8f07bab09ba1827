package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records request counts, latency and in-flight gauges by route template.
func Metrics(reg prometheus.Registerer) echo.MiddlewareFunc {
	f := promauto.With(reg)
	requests := f.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flarecast",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"route", "method", "status"})
	duration := f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "flarecast",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "class"})
	inFlight := f.NewGauge(prometheus.GaugeOpts{
		Namespace: "flarecast",
		Subsystem: "http",
		Name:      "in_flight_requests",
		Help:      "Current number of in-flight HTTP requests",
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			// resolve the error first so the recorded status is the one sent
			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			method := c.Request().Method
			requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			duration.WithLabelValues(route, method, statusClass(status)).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func statusClass(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

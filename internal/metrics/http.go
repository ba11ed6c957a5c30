package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = newCounterVec("http_requests_total",
		"HTTP requests by route and status code",
		"method", "route", "status_code")

	httpDuration = newHistogramVec("http_request_duration_seconds",
		"HTTP request latency by route",
		[]float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 10},
		"method", "route")

	httpResponseBytes = newHistogramVec("http_response_size_bytes",
		"Response body size by route",
		prometheus.ExponentialBuckets(128, 4, 8),
		"route")

	httpInFlight = newGauge("http_requests_in_flight",
		"Requests currently being served")
)

var uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// routeLabel prefers the matched ServeMux pattern and falls back to the
// path with UUIDs replaced, keeping label cardinality bounded.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	if strings.HasPrefix(r.URL.Path, "/files/") {
		return "/files/{key}"
	}
	return uuidPattern.ReplaceAllString(r.URL.Path, "{id}")
}

// Middleware records request count, latency and response size. The
// scrape endpoint itself is not measured.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		httpInFlight.Inc()
		m := httpsnoop.CaptureMetrics(next, w, r)
		httpInFlight.Dec()

		route := routeLabel(r)
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(m.Code)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(m.Duration.Seconds())
		httpResponseBytes.WithLabelValues(route).Observe(float64(m.Written))
	})
}

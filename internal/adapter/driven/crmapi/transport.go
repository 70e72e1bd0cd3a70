package crmapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiendapanel_api_requests_total",
			Help: "Total number of requests sent to the tenant API",
		},
		[]string{"method", "resource", "status"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tiendapanel_api_request_duration_seconds",
			Help:    "Duration of tenant API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "resource"},
	)
)

// bearerTransport attaches the token chosen by the resolver. Requests for
// which no token resolves are sent unauthenticated.
type bearerTransport struct {
	resolver driven.TokenResolver
	next     http.RoundTripper
}

// RoundTrip clones the request before setting the header, as RoundTripper
// implementations must not modify their input.
func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.resolver == nil {
		return t.next.RoundTrip(req)
	}

	token, err := t.resolver.ResolveToken(req.Context(), req.URL)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return t.next.RoundTrip(req)
	}

	authed := req.Clone(req.Context())
	authed.Header.Set("Authorization", "Bearer "+token)
	return t.next.RoundTrip(authed)
}

// metricsTransport records a counter and latency observation per call.
type metricsTransport struct {
	next http.RoundTripper
}

func (t *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resource := resourceLabel(req.URL.Path)

	resp, err := t.next.RoundTrip(req)

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	apiRequestsTotal.WithLabelValues(req.Method, resource, status).Inc()
	apiRequestDuration.WithLabelValues(req.Method, resource).Observe(time.Since(start).Seconds())

	return resp, err
}

// resourceLabel keeps label cardinality bounded: numeric path segments are
// replaced by "{id}" and only the last four segments are kept.
func resourceLabel(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	if len(segments) > 4 {
		segments = segments[len(segments)-4:]
	}
	return strings.Join(segments, "/")
}

// Package metrics provides an optional Prometheus-backed request counter.
// The App hands a Recorder to the router when metrics are enabled (it is not
// registered in the DI container); the request executor increments it when
// one is present, so the core has no mandatory dependency on a metrics
// backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder counts requests and error responses by method and route.
type Recorder struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

// New builds a Recorder and registers its collectors with reg. Pass
// prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer in production. A nil reg registers with
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "turbo_requests_total",
			Help: "Total HTTP requests dispatched by Turbo, labelled by route and method.",
		}, []string{"method", "route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "turbo_request_errors_total",
			Help: "Total HTTP responses with status >= 500, labelled by route and method.",
		}, []string{"method", "route"}),
	}
	reg.MustRegister(r.requests, r.errors)
	return r
}

// ObserveRequest increments the request counter for (method, route).
func (r *Recorder) ObserveRequest(method, route string) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(method, route).Inc()
}

// ObserveError increments the error counter for (method, route) when status
// indicates a server error.
func (r *Recorder) ObserveError(method, route string, status int) {
	if r == nil || status < 500 {
		return
	}
	r.errors.WithLabelValues(method, route).Inc()
}

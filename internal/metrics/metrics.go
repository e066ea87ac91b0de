// Package metrics registers the Prometheus collectors shared across the
// daemon. Everything lives on the default registry and is exposed by the
// web server's /metrics route.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vita",
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by route and status code",
	}, []string{"route", "code"})

	ProviderPages = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vita",
		Name:      "provider_pages_total",
		Help:      "Pages fetched from the calendar provider",
	})

	ProviderErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vita",
		Name:      "provider_errors_total",
		Help:      "Failed calendar provider calls",
	})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vita",
		Name:      "llm_requests_total",
		Help:      "LLM completion calls, by agent",
	}, []string{"agent"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vita",
		Name:      "cache_total",
		Help:      "Upcoming-events cache lookups, by result (hit or miss)",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package metrics exposes Prometheus counters for the site and the contact
// pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devswami/portfolio/internal/mailer"
)

const namespace = "portfolio"

// Registry owns the collectors and their Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	submissions *prometheus.CounterVec
	submitTime  prometheus.Histogram
	sends       *prometheus.HistogramVec
}

// New creates a Registry with the Go and process collectors registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_submissions_total",
			Help:      "Contact submissions by outcome.",
		}, []string{"outcome"}),
		submitTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "contact_submission_duration_seconds",
			Help:      "Time from validation to transport completion.",
			Buckets:   prometheus.DefBuckets,
		}),
		sends: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mail_send_duration_seconds",
			Help:      "Mail provider call latency by provider and result.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"provider", "result"}),
	}

	reg.MustRegister(r.requests, r.submissions, r.submitTime, r.sends)
	return r
}

// Handler serves the exposition format. Compression is left to the server's
// middleware.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry, DisableCompression: true})
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveRequest counts a completed HTTP request.
func (r *Registry) ObserveRequest(method string, status int, _ time.Duration) {
	r.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// ObserveSubmission records a contact pipeline outcome.
func (r *Registry) ObserveSubmission(outcome string, took time.Duration) {
	r.submissions.WithLabelValues(outcome).Inc()
	r.submitTime.Observe(took.Seconds())
}

// InstrumentSender times every Send of next.
func (r *Registry) InstrumentSender(provider string, next mailer.Sender) mailer.Sender {
	return mailer.SenderFunc(func(ctx context.Context, msg mailer.Message) error {
		start := time.Now()
		err := next.Send(ctx, msg)
		result := "ok"
		switch {
		case errors.Is(err, mailer.ErrConfiguration):
			result = "config_error"
		case err != nil:
			result = "error"
		}
		r.sends.WithLabelValues(provider, result).Observe(time.Since(start).Seconds())
		return err
	})
}

// Package metrics exposes roster outcomes and HTTP traffic as Prometheus
// collectors.
//
// Each Recorder owns its own registry, so tests and multiple servers in one
// process never collide on registration. Every method is safe to call on a
// nil *Recorder; that is how callers run with metrics turned off.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "joinagame"

// Join outcomes, used as the "outcome" label.
const (
	OutcomeJoined        = "joined"
	OutcomeFull          = "full"
	OutcomeAlreadyJoined = "already_joined"
)

type Recorder struct {
	registry *prometheus.Registry

	gamesCreated *prometheus.CounterVec
	joins        *prometheus.CounterVec
	leaves       *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New builds a Recorder with the Go runtime and process collectors attached.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		gamesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_created_total",
			Help:      "Games created, by sport.",
		}, []string{"sport"}),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roster_joins_total",
			Help:      "Join attempts that reached the roster engine, by sport and outcome.",
		}, []string{"sport", "outcome"}),
		leaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roster_leaves_total",
			Help:      "Leave operations applied, by sport.",
		}, []string{"sport"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.gamesCreated,
		r.joins,
		r.leaves,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// Registry returns the registry the collectors live in.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the exposition format for this Recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) GameCreated(sport string) {
	if r == nil {
		return
	}
	r.gamesCreated.WithLabelValues(sport).Inc()
}

// JoinAttempt records one join against a game of sport with the given outcome
// (OutcomeJoined, OutcomeFull or OutcomeAlreadyJoined).
func (r *Recorder) JoinAttempt(sport, outcome string) {
	if r == nil {
		return
	}
	r.joins.WithLabelValues(sport, outcome).Inc()
}

func (r *Recorder) PlayerLeft(sport string) {
	if r == nil {
		return
	}
	r.leaves.WithLabelValues(sport).Inc()
}

// ObserveHTTP records one served request. route should be the router pattern
// (e.g. "/api/games/{gameId}/join"), never the raw path, to keep label
// cardinality bounded.
func (r *Recorder) ObserveHTTP(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

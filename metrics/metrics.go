// Package metrics exposes store activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the metric vectors shared by every store it is attached to.
type Collector struct {
	actions          *prometheus.CounterVec
	reduceDuration   *prometheus.HistogramVec
	effectsStarted   *prometheus.CounterVec
	effectsCancelled *prometheus.CounterVec
	effectsFailed    *prometheus.CounterVec
	effectsInFlight  *prometheus.GaugeVec
	actionsDropped   *prometheus.CounterVec
	staleSends       *prometheus.CounterVec
	misuses          *prometheus.CounterVec
}

// NewCollector registers the store metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "composable_store_actions_total",
			Help: "Total actions reduced by store",
		}, []string{"store"}),
		reduceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "composable_store_reduce_duration_seconds",
			Help:    "Time spent in the synchronous phase of a send",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}, []string{"store"}),
		effectsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "composable_store_effects_started_total",
			Help: "Total effects started by store",
		}, []string{"store"}),
		effectsCancelled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "composable_store_effects_cancelled_total",
			Help: "Total effects cancelled by id by store",
		}, []string{"store"}),
		effectsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "composable_store_effects_failed_total",
			Help: "Total effects that failed without a catch by store",
		}, []string{"store"}),
		effectsInFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "composable_store_effects_in_flight",
			Help: "Effects currently running by store",
		}, []string{"store"}),
		actionsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "composable_store_actions_dropped_total",
			Help: "Actions sent by cancelled effects and dropped before reaching a reducer",
		}, []string{"store"}),
		staleSends: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "composable_store_stale_sends_total",
			Help: "Sends to scoped stores that were no longer valid",
		}, []string{"store"}),
		misuses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "composable_store_misuses_total",
			Help: "Misuses reported by reducer composition operators by kind",
		}, []string{"store", "kind"}),
	}
}

// ForStore binds the collector to one store's label. A nil collector yields
// a nil *Store, whose methods do nothing.
func (c *Collector) ForStore(name string) *Store {
	if c == nil {
		return nil
	}
	return &Store{c: c, name: name}
}

// Store records the activity of one store.
type Store struct {
	c    *Collector
	name string
}

func (s *Store) ActionReduced(took time.Duration) {
	if s == nil {
		return
	}
	s.c.actions.WithLabelValues(s.name).Inc()
	s.c.reduceDuration.WithLabelValues(s.name).Observe(took.Seconds())
}

func (s *Store) EffectStarted() {
	if s == nil {
		return
	}
	s.c.effectsStarted.WithLabelValues(s.name).Inc()
	s.c.effectsInFlight.WithLabelValues(s.name).Inc()
}

func (s *Store) EffectFinished() {
	if s == nil {
		return
	}
	s.c.effectsInFlight.WithLabelValues(s.name).Dec()
}

func (s *Store) EffectsCancelled(n int) {
	if s == nil {
		return
	}
	s.c.effectsCancelled.WithLabelValues(s.name).Add(float64(n))
}

func (s *Store) EffectFailed() {
	if s == nil {
		return
	}
	s.c.effectsFailed.WithLabelValues(s.name).Inc()
}

func (s *Store) ActionDropped() {
	if s == nil {
		return
	}
	s.c.actionsDropped.WithLabelValues(s.name).Inc()
}

func (s *Store) StaleSend() {
	if s == nil {
		return
	}
	s.c.staleSends.WithLabelValues(s.name).Inc()
}

func (s *Store) Misuse(kind string) {
	if s == nil {
		return
	}
	s.c.misuses.WithLabelValues(s.name, kind).Inc()
}

// Package metrics provides sinks for session metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records session events in Prometheus metrics.
type PromSink struct {
	sessions  prometheus.Counter
	rejected  prometheus.Counter
	incidents prometheus.Counter
	scores    prometheus.Histogram
}

// NewPromSink registers the session collectors on the provided registerer. If
// reg is nil, the default registerer is used. Already-registered collectors
// are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatchsim_sessions_started_total",
			Help: "Total number of training sessions started",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatchsim_placements_rejected_total",
			Help: "Total number of placement operations rejected by rule checks",
		}),
		incidents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatchsim_incidents_spawned_total",
			Help: "Total number of incidents spawned by the wave engine",
		}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatchsim_final_score",
			Help:    "Distribution of final session scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
	}

	if err := reg.Register(s.sessions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.sessions = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.rejected); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.rejected = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.incidents); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.incidents = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.scores); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.scores = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	return s, nil
}

func (s *PromSink) SessionStarted()    { s.sessions.Inc() }
func (s *PromSink) PlacementRejected() { s.rejected.Inc() }

func (s *PromSink) IncidentsSpawned(count int) {
	s.incidents.Add(float64(count))
}

func (s *PromSink) FinalScore(score float64) {
	s.scores.Observe(score)
}

// NopSink discards all metrics.
type NopSink struct{}

func (NopSink) SessionStarted()      {}
func (NopSink) PlacementRejected()   {}
func (NopSink) IncidentsSpawned(int) {}
func (NopSink) FinalScore(float64)   {}

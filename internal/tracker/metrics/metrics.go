package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tracker module.
type Metrics struct {
	// Section commits by section and outcome ("ok", "rejected", "conflict", "error")
	SectionCommits *prometheus.CounterVec

	// Tracker and section read latency by operation
	FetchLatency *prometheus.HistogramVec

	// Step transitions by destination step
	StepAdvances *prometheus.CounterVec

	TrackersCreated prometheus.Counter
}

// New registers the tracker metrics on reg. A nil registerer uses the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		SectionCommits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "driverdesk_tracker_section_commits_total",
			Help: "Section writes by section and outcome",
		}, []string{"section", "outcome"}),

		FetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "driverdesk_tracker_fetch_duration_seconds",
			Help:    "Duration of tracker and section reads",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),

		StepAdvances: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "driverdesk_tracker_step_advances_total",
			Help: "Step transitions by destination step",
		}, []string{"step"}),

		TrackersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "driverdesk_trackers_created_total",
			Help: "Trackers created",
		}),
	}
}

// IncrementSectionCommit records the outcome of a section write.
func (m *Metrics) IncrementSectionCommit(section, outcome string) {
	if m != nil {
		m.SectionCommits.WithLabelValues(section, outcome).Inc()
	}
}

// ObserveFetch records the duration of a read since start.
func (m *Metrics) ObserveFetch(operation string, start time.Time) {
	if m != nil {
		m.FetchLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// IncrementStepAdvance records a transition into step.
func (m *Metrics) IncrementStepAdvance(step string) {
	if m != nil {
		m.StepAdvances.WithLabelValues(step).Inc()
	}
}

func (m *Metrics) IncrementTrackersCreated() {
	if m != nil {
		m.TrackersCreated.Inc()
	}
}

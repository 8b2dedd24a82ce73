package reporter

import (
	"fmt"
	"sync"
	"time"

	"github.com/konveyor/progress-bridge/progress"
	"github.com/konveyor/progress-bridge/workdone"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusReporter exports indicator and session metrics. It is a
// progress.Reporter for indicator events and a workdone.Observer for driver
// outcomes, so one instance can be handed to both.
type PrometheusReporter struct {
	indicatorsStarted prometheus.Counter
	indicatorsEnded   *prometheus.CounterVec
	indicatorsLive    prometheus.Gauge

	sessionsStarted  prometheus.Counter
	sessionsEnded    *prometheus.CounterVec
	sessionsRunning  prometheus.Gauge
	sessionDurations *prometheus.HistogramVec

	mu   sync.Mutex
	live map[string]struct{}
}

var (
	_ progress.Reporter = &PrometheusReporter{}
	_ workdone.Observer = &PrometheusReporter{}
)

// NewPrometheusReporter registers the collectors against reg, or the default
// registerer when reg is nil.
func NewPrometheusReporter(reg prometheus.Registerer) (*PrometheusReporter, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusReporter{
		indicatorsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "progress_bridge_indicators_started_total",
			Help: "Total progress indicators shown.",
		}),
		indicatorsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_bridge_indicators_ended_total",
			Help: "Total progress indicators removed, partitioned by stage.",
		}, []string{"stage"}),
		indicatorsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "progress_bridge_indicators_live",
			Help: "Progress indicators currently shown.",
		}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "progress_bridge_sessions_started_total",
			Help: "Total work-done sessions that started driving an indicator.",
		}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_bridge_sessions_ended_total",
			Help: "Total work-done sessions ended, partitioned by outcome.",
		}, []string{"outcome"}),
		sessionsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "progress_bridge_sessions_running",
			Help: "Work-done sessions currently being driven.",
		}),
		sessionDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "progress_bridge_session_duration_seconds",
			Help:    "Wall time of driven work-done sessions.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		}, []string{"outcome"}),
		live: map[string]struct{}{},
	}
	for _, collector := range []prometheus.Collector{
		r.indicatorsStarted,
		r.indicatorsEnded,
		r.indicatorsLive,
		r.sessionsStarted,
		r.sessionsEnded,
		r.sessionsRunning,
		r.sessionDurations,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return r, nil
}

func (r *PrometheusReporter) Report(event progress.Event) {
	switch {
	case event.Stage == progress.StageStart:
		r.indicatorsStarted.Inc()
		if r.track(event.ID, true) {
			r.indicatorsLive.Inc()
		}
	case event.Stage.Terminal():
		r.indicatorsEnded.WithLabelValues(string(event.Stage)).Inc()
		if r.track(event.ID, false) {
			r.indicatorsLive.Dec()
		}
	}
}

func (r *PrometheusReporter) SessionStarted(workdone.Token, string) {
	r.sessionsStarted.Inc()
	r.sessionsRunning.Inc()
}

func (r *PrometheusReporter) SessionEnded(_ workdone.Token, outcome workdone.Outcome, elapsed time.Duration) {
	r.sessionsEnded.WithLabelValues(string(outcome)).Inc()
	r.sessionsRunning.Dec()
	r.sessionDurations.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

// track adds or removes id from the live set and reports whether it changed.
func (r *PrometheusReporter) track(id string, start bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.live[id]
	if start {
		r.live[id] = struct{}{}
		return !ok
	}
	delete(r.live, id)
	return ok
}

// Package metrics exposes Prometheus collectors for the world and the
// villager interceptor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NikitaCartes-forks/bonk/internal/sim/world"
)

// Metrics holds the interceptor collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Interceptions by action (bonk, blam) and outcome (success, failure).
	Interceptions *prometheus.CounterVec

	// Action log writes that failed, by action identifier.
	LogFailures *prometheus.CounterVec
}

// New registers the interceptor collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Interceptions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bonk_villager_interceptions_total",
			Help: "Villager attacks replaced by a bonk or blam, by outcome",
		}, []string{"action", "outcome"}),

		LogFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bonk_action_log_failures_total",
			Help: "Action log writes that returned an error",
		}, []string{"action"}),
	}
}

// IncrementInterception records one intercepted attack.
func (m *Metrics) IncrementInterception(action string, success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.Interceptions.WithLabelValues(action, outcome).Inc()
}

// IncrementLogFailure records a failed LogAction call.
func (m *Metrics) IncrementLogFailure(action string) {
	if m != nil {
		m.LogFailures.WithLabelValues(action).Inc()
	}
}

// RegisterWorld exposes the world's runtime metrics as gauges. Values are
// read from w.Metrics() at scrape time.
func RegisterWorld(reg prometheus.Registerer, w *world.World) {
	f := promauto.With(reg)
	labels := prometheus.Labels{"world": w.ID()}
	gauge := func(name, help string, fn func(world.WorldMetrics) float64) {
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return fn(w.Metrics()) })
	}
	gauge("bonk_world_tick", "Current world tick", func(m world.WorldMetrics) float64 { return float64(m.Tick) })
	gauge("bonk_world_agents", "Players in the world", func(m world.WorldMetrics) float64 { return float64(m.Agents) })
	gauge("bonk_world_clients", "Connected player clients", func(m world.WorldMetrics) float64 { return float64(m.Clients) })
	gauge("bonk_world_villagers", "Villagers in the world", func(m world.WorldMetrics) float64 { return float64(m.Villagers) })
	gauge("bonk_world_unconscious_villagers", "Villagers currently knocked out", func(m world.WorldMetrics) float64 { return float64(m.Unconscious) })
	gauge("bonk_world_inbox_depth", "Queued player actions", func(m world.WorldMetrics) float64 { return float64(m.QueueDepths.Inbox) })
	gauge("bonk_world_step_ms", "Duration of the last tick in milliseconds", func(m world.WorldMetrics) float64 { return m.StepMS })
}

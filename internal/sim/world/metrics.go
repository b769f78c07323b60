package world

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Agents      int `json:"agents"`
	Clients     int `json:"clients"`
	Villagers   int `json:"villagers"`
	Unconscious int `json:"unconscious"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
}

type QueueDepths struct {
	Inbox  int `json:"inbox"`
	Join   int `json:"join"`
	Leave  int `json:"leave"`
	Attach int `json:"attach"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	m, _ := w.metrics.Load().(WorldMetrics)
	return m
}

func (w *World) storeMetrics(tick uint64, stepMS float64) {
	unconscious := 0
	for _, v := range w.villagers {
		if v.UnconsciousTime() > 0 {
			unconscious++
		}
	}
	w.metrics.Store(WorldMetrics{
		Tick:        tick,
		Agents:      len(w.agents),
		Clients:     len(w.clients),
		Villagers:   len(w.villagers),
		Unconscious: unconscious,
		QueueDepths: QueueDepths{
			Inbox:  len(w.inbox),
			Join:   len(w.join),
			Leave:  len(w.leave),
			Attach: len(w.attach),
		},
		StepMS: stepMS,
	})
}

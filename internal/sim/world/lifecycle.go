package world

// OnServerStarting registers fn to run once, on the world goroutine, before
// the first tick.
func (w *World) OnServerStarting(fn func(w *World)) {
	if fn == nil {
		return
	}
	w.startingHooks = append(w.startingHooks, fn)
}

// Start runs the server-starting hooks. Run calls it; tests that drive the
// world by hand call it directly. Later calls are no-ops.
func (w *World) Start() {
	if w.started {
		return
	}
	w.started = true
	for _, fn := range w.startingHooks {
		fn(w)
	}
}

func (w *World) Started() bool { return w.started }

package layout

import "sync"

// Runner serializes layout requests for a host that may re-trigger while a
// run is still in flight: submitting a new engine first stops the current
// one, so two integrators never mutate divergent simulation sets.
type Runner struct {
	mu      sync.Mutex
	current *Engine
}

// Begin stops any in-flight engine and installs the given one as current.
// The caller then drives the returned engine (Tick, Frames or Run) on its
// own loop.
func (r *Runner) Begin(e *Engine) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.Stop()
	}
	r.current = e
	return e
}

// Stop halts the current run, if any. Safe to call at any time.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.Stop()
	}
}

// Active reports whether e is still the most recently begun engine. Hosts
// use it to discard frames from a superseded run.
func (r *Runner) Active(e *Engine) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current == e
}

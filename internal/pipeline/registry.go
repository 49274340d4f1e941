package pipeline

import (
	"errors"
	"sync"
)

// ErrRunInFlight is returned when a submission overlaps an executing run.
// Overlap policy is reject, not queue; the dispatcher retries within the
// trigger max age.
var ErrRunInFlight = errors.New("a run is already in flight")

// Registry tracks the single in-flight run and the most recent terminal view.
type Registry struct {
	mu     sync.Mutex
	active *RunRecord
	last   *RunView
}

func NewRegistry() *Registry { return &Registry{} }

// Admit reserves the in-flight slot for rec.
func (g *Registry) Admit(rec *RunRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active != nil {
		return ErrRunInFlight
	}
	g.active = rec
	return nil
}

// Release frees the slot and remembers the terminal view. Releasing a record
// that is not the active one is a no-op.
func (g *Registry) Release(rec *RunRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active != rec {
		return
	}
	v := rec.View()
	g.last = &v
	g.active = nil
}

// Active snapshots the in-flight run, if any.
func (g *Registry) Active() (RunView, bool) {
	g.mu.Lock()
	rec := g.active
	g.mu.Unlock()
	if rec == nil {
		return RunView{}, false
	}
	return rec.View(), true
}

// Last returns the most recent terminal run view, if any.
func (g *Registry) Last() (RunView, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last == nil {
		return RunView{}, false
	}
	return *g.last, true
}

package trigger

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/pressline/internal/pipeline"
)

// DroppedTrigger is a firing abandoned after delivery attempts were
// exhausted, kept for inspection and manual re-submission.
type DroppedTrigger struct {
	Request pipeline.RunRequest `json:"request"`
	Reason  string              `json:"reason"`
	At      time.Time           `json:"at"`
}

// DropLog stores dropped firings in memory.
type DropLog struct {
	mu    sync.RWMutex
	drops []DroppedTrigger
}

func NewDropLog() *DropLog {
	return &DropLog{drops: []DroppedTrigger{}}
}

// Record appends a dropped firing.
func (l *DropLog) Record(d DroppedTrigger) {
	l.mu.Lock()
	l.drops = append(l.drops, d)
	l.mu.Unlock()
}

// All returns a copy of the dropped firings, oldest first.
func (l *DropLog) All() []DroppedTrigger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]DroppedTrigger, len(l.drops))
	copy(out, l.drops)
	return out
}

// Count returns the number of dropped firings.
func (l *DropLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.drops)
}

// Clear empties the log, typically after an operator re-submitted the work.
func (l *DropLog) Clear() {
	l.mu.Lock()
	l.drops = []DroppedTrigger{}
	l.mu.Unlock()
}

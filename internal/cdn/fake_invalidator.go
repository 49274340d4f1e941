package cdn

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Call records one Invalidate submission.
type Call struct {
	DistributionID  string
	CallerReference string
	Paths           []string
}

// RecordingInvalidator is the in-memory test double. It records every
// submission and can be primed to fail.
type RecordingInvalidator struct {
	mu    sync.Mutex
	calls []Call

	// Fail makes every Invalidate return this error.
	Fail error
}

func NewRecordingInvalidator() *RecordingInvalidator {
	return &RecordingInvalidator{}
}

func (r *RecordingInvalidator) Invalidate(_ context.Context, distributionID, callerReference string) (Ack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Fail != nil {
		return Ack{}, r.Fail
	}
	r.calls = append(r.calls, Call{
		DistributionID:  distributionID,
		CallerReference: callerReference,
		Paths:           append([]string(nil), invalidationPaths...),
	})
	return Ack{
		InvalidationID:  fmt.Sprintf("inv-%d", len(r.calls)),
		CallerReference: callerReference,
		SubmittedAt:     time.Now().UTC(),
	}, nil
}

// Calls returns a copy of the recorded submissions.
func (r *RecordingInvalidator) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

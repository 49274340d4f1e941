// Package cdn submits cache invalidations to the edge provider after a
// successful build. Invalidations always cover the full path space and are
// idempotent through a caller reference, so re-submitting for the same run
// is safe.
package cdn

import (
	"context"
	"time"
)

// Ack is the provider's acknowledgement of an accepted invalidation.
type Ack struct {
	InvalidationID  string
	CallerReference string
	SubmittedAt     time.Time
}

// Invalidator submits a full-path cache invalidation for a distribution.
// The caller reference deduplicates retries provider-side.
type Invalidator interface {
	Invalidate(ctx context.Context, distributionID, callerReference string) (Ack, error)
}

// invalidationPaths is always the full path space. Per-key invalidation is
// not supported; the artifact is replaced wholesale.
var invalidationPaths = []string{"/*"}

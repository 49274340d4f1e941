package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pressline/internal/cdn"
	"git.home.luguber.info/inful/pressline/internal/content"
	perrors "git.home.luguber.info/inful/pressline/internal/errors"
	"git.home.luguber.info/inful/pressline/internal/sitebuild"
)

// TriggerKind identifies what submitted a run.
type TriggerKind string

const (
	KindScheduled TriggerKind = "scheduled"
	KindChange    TriggerKind = "change"
	KindManual    TriggerKind = "manual"
)

// RunRequest is a submission from a trigger. TriggeredAt is the firing time,
// not the acceptance time; acceptance is bounded by the trigger max age.
type RunRequest struct {
	Kind        TriggerKind `json:"kind"`
	TriggeredAt time.Time   `json:"triggered_at"`
	IsDraft     bool        `json:"draft,omitempty"`
	BuildOnly   bool        `json:"build_only,omitempty"`
}

// Age reports how long ago the request was triggered.
func (r RunRequest) Age(now time.Time) time.Duration {
	return now.Sub(r.TriggeredAt)
}

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	StatusPending      RunStatus = "pending"
	StatusRunning      RunStatus = "running"
	StatusJoined       RunStatus = "joined"
	StatusBuilding     RunStatus = "building"
	StatusInvalidating RunStatus = "invalidating"
	StatusSucceeded    RunStatus = "succeeded"
	StatusFailed       RunStatus = "failed"
)

// IsTerminal reports whether the status is final.
func IsTerminal(s RunStatus) bool {
	switch s {
	case StatusSucceeded, StatusFailed:
		return true
	default:
		return false
	}
}

// isAllowedTransition validates the run lifecycle. Pending jumps straight to
// Joined for build-only runs (no branches to execute). Failed is reachable
// from every non-terminal state so a run always lands terminal.
func isAllowedTransition(from, to RunStatus) bool {
	if to == StatusFailed {
		return !IsTerminal(from)
	}
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusJoined
	case StatusRunning:
		return to == StatusJoined
	case StatusJoined:
		return to == StatusBuilding
	case StatusBuilding:
		return to == StatusInvalidating
	case StatusInvalidating:
		return to == StatusSucceeded
	default:
		return false
	}
}

// Stage names used for failure attribution and metrics.
const (
	StageGenerate   = "generate"
	StageRender     = "render"
	StageBuild      = "build"
	StageVerify     = "verify"
	StageInvalidate = "invalidate"
)

// BranchResult is the outcome of one language branch. A branch either carries
// a generated item or a failure; branch failures never abort the run, they
// ride along as metadata into the terminal record.
type BranchResult struct {
	Item    *content.ContentItem
	Failure *BranchFailure
}

// BranchFailure records which stage of a branch failed and why.
type BranchFailure struct {
	Stage string
	Err   error
}

// RunRecord is the mutable state of a single run. The executing goroutine is
// the only writer; the mutex exists so status endpoints can snapshot a live
// run safely.
type RunRecord struct {
	ID      string
	Request RunRequest

	mu           sync.Mutex
	status       RunStatus
	failedStage  string
	failure      error
	branches     map[content.Lang]BranchResult
	artifact     *sitebuild.BuildArtifact
	invalidation *cdn.Ack
	startedAt    time.Time
	endedAt      time.Time
}

// NewRunRecord creates a pending record with a fresh run ID.
func NewRunRecord(req RunRequest) *RunRecord {
	return &RunRecord{
		ID:       uuid.NewString(),
		Request:  req,
		status:   StatusPending,
		branches: map[content.Lang]BranchResult{},
	}
}

// Begin stamps the execution start time.
func (r *RunRecord) Begin(t time.Time) {
	r.mu.Lock()
	r.startedAt = t
	r.mu.Unlock()
}

// Status returns the current lifecycle state.
func (r *RunRecord) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Transition moves the run to the next state. A disallowed transition is a
// programming error and comes back as an internal PipelineError.
func (r *RunRecord) Transition(to RunStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !isAllowedTransition(r.status, to) {
		return perrors.InternalError(
			"disallowed run transition", nil,
		).WithContext("run_id", r.ID).
			WithContext("from", string(r.status)).
			WithContext("to", string(to))
	}
	r.status = to
	return nil
}

// SetBranchResult records one branch outcome after the join.
func (r *RunRecord) SetBranchResult(lang content.Lang, res BranchResult) {
	r.mu.Lock()
	r.branches[lang] = res
	r.mu.Unlock()
}

// SetArtifact attaches the build artifact. Present on every run that reached
// Building, success or not.
func (r *RunRecord) SetArtifact(a sitebuild.BuildArtifact) {
	r.mu.Lock()
	r.artifact = &a
	r.mu.Unlock()
}

// SetInvalidation attaches the CDN acknowledgment.
func (r *RunRecord) SetInvalidation(ack cdn.Ack) {
	r.mu.Lock()
	r.invalidation = &ack
	r.mu.Unlock()
}

// Finish moves the run to its terminal state and stamps the end time.
func (r *RunRecord) Finish(status RunStatus, stage string, cause error, t time.Time) error {
	if err := r.Transition(status); err != nil {
		return err
	}
	r.mu.Lock()
	r.failedStage = stage
	r.failure = cause
	r.endedAt = t
	r.mu.Unlock()
	return nil
}

// Failure returns the run-level failure cause, nil for succeeded runs.
func (r *RunRecord) Failure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}

// RunView is the immutable read model of a run, JSON-shaped for the status
// endpoint and the archive.
type RunView struct {
	ID           string            `json:"id"`
	Kind         TriggerKind       `json:"kind"`
	IsDraft      bool              `json:"draft"`
	BuildOnly    bool              `json:"build_only"`
	Status       RunStatus         `json:"status"`
	FailedStage  string            `json:"failed_stage,omitempty"`
	Failure      string            `json:"failure,omitempty"`
	Branches     []BranchView      `json:"branches,omitempty"`
	Artifact     *ArtifactView     `json:"artifact,omitempty"`
	Invalidation *InvalidationView `json:"invalidation,omitempty"`
	TriggeredAt  time.Time         `json:"triggered_at"`
	StartedAt    time.Time         `json:"started_at,omitempty"`
	EndedAt      time.Time         `json:"ended_at,omitempty"`
}

// BranchView is the read model of one language branch.
type BranchView struct {
	Lang         string `json:"lang"`
	Succeeded    bool   `json:"succeeded"`
	FailedStage  string `json:"failed_stage,omitempty"`
	Error        string `json:"error,omitempty"`
	ContentKey   string `json:"content_key,omitempty"`
	ThumbnailKey string `json:"thumbnail_key,omitempty"`
	WordCount    int    `json:"word_count,omitempty"`
}

// ArtifactView is the read model of the build artifact.
type ArtifactView struct {
	Success     bool   `json:"success"`
	Location    string `json:"location,omitempty"`
	LogRef      string `json:"log_ref,omitempty"`
	ToolVersion string `json:"tool_version,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

// InvalidationView is the read model of the CDN acknowledgment.
type InvalidationView struct {
	InvalidationID  string    `json:"invalidation_id"`
	CallerReference string    `json:"caller_reference"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// View snapshots the record. Branches come back sorted by language so the
// view is deterministic.
func (r *RunRecord) View() RunView {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := RunView{
		ID:          r.ID,
		Kind:        r.Request.Kind,
		IsDraft:     r.Request.IsDraft,
		BuildOnly:   r.Request.BuildOnly,
		Status:      r.status,
		FailedStage: r.failedStage,
		TriggeredAt: r.Request.TriggeredAt,
		StartedAt:   r.startedAt,
		EndedAt:     r.endedAt,
	}
	if r.failure != nil {
		v.Failure = r.failure.Error()
	}

	langs := make([]content.Lang, 0, len(r.branches))
	for lang := range r.branches {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	for _, lang := range langs {
		res := r.branches[lang]
		bv := BranchView{Lang: string(lang)}
		switch {
		case res.Failure != nil:
			bv.FailedStage = res.Failure.Stage
			if res.Failure.Err != nil {
				bv.Error = res.Failure.Err.Error()
			}
		case res.Item != nil:
			bv.Succeeded = true
			bv.ContentKey = res.Item.ContentKey
			bv.ThumbnailKey = res.Item.ThumbnailKey
			bv.WordCount = res.Item.WordCount
		}
		v.Branches = append(v.Branches, bv)
	}

	if r.artifact != nil {
		v.Artifact = &ArtifactView{
			Success:     r.artifact.Success,
			Location:    r.artifact.ArtifactLocation,
			LogRef:      r.artifact.LogRef,
			ToolVersion: r.artifact.ToolVersion,
			DurationMS:  r.artifact.Duration.Milliseconds(),
		}
	}
	if r.invalidation != nil {
		v.Invalidation = &InvalidationView{
			InvalidationID:  r.invalidation.InvalidationID,
			CallerReference: r.invalidation.CallerReference,
			SubmittedAt:     r.invalidation.SubmittedAt,
		}
	}
	return v
}

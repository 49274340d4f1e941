package pipeline

import "time"

// Event is a run lifecycle event published on the Bus.
type Event interface {
	Name() string
	RunID() string
}

// Event names.
const (
	EventRunStarted      = "RunStarted"
	EventBranchCompleted = "BranchCompleted"
	EventBuildCompleted  = "BuildCompleted"
	EventRunFinished     = "RunFinished"
	EventTriggerDropped  = "TriggerDropped"
)

// RunStarted marks acceptance of a run request.
type RunStarted struct {
	ID        string      `json:"run_id"`
	Kind      TriggerKind `json:"kind"`
	IsDraft   bool        `json:"draft"`
	BuildOnly bool        `json:"build_only"`
	At        time.Time   `json:"at"`
}

func (e RunStarted) Name() string  { return EventRunStarted }
func (e RunStarted) RunID() string { return e.ID }

// BranchCompleted marks one language branch reaching the join.
type BranchCompleted struct {
	ID        string    `json:"run_id"`
	Lang      string    `json:"lang"`
	Succeeded bool      `json:"succeeded"`
	Stage     string    `json:"stage,omitempty"` // failing stage when not succeeded
	At        time.Time `json:"at"`
}

func (e BranchCompleted) Name() string  { return EventBranchCompleted }
func (e BranchCompleted) RunID() string { return e.ID }

// BuildCompleted marks the site build finishing, success or not.
type BuildCompleted struct {
	ID       string    `json:"run_id"`
	Success  bool      `json:"success"`
	Location string    `json:"location,omitempty"`
	At       time.Time `json:"at"`
}

func (e BuildCompleted) Name() string  { return EventBuildCompleted }
func (e BuildCompleted) RunID() string { return e.ID }

// RunFinished marks a terminal state.
type RunFinished struct {
	ID          string    `json:"run_id"`
	Status      RunStatus `json:"status"`
	FailedStage string    `json:"failed_stage,omitempty"`
	At          time.Time `json:"at"`
}

func (e RunFinished) Name() string  { return EventRunFinished }
func (e RunFinished) RunID() string { return e.ID }

// TriggerDropped marks a trigger abandoned after delivery attempts were
// exhausted. It carries no run ID; no run was ever admitted.
type TriggerDropped struct {
	Kind   TriggerKind `json:"kind"`
	Reason string      `json:"reason"`
	At     time.Time   `json:"at"`
}

func (e TriggerDropped) Name() string  { return EventTriggerDropped }
func (e TriggerDropped) RunID() string { return "" }

package pipeline

import (
	"context"
	"encoding/json"
)

// Stage is one unit of resumable work. Run computes the stage output from the
// shared run state; Restore rehydrates the same state from a cached payload.
// The value Run returns is JSON-marshaled into the stage cache.
type Stage struct {
	Name      string
	Required  bool
	DependsOn []string
	// Enabled is false when the stage's collaborator is not configured. A
	// disabled stage is recorded as skipped and never touches the cache.
	Enabled bool
	Run     func(ctx context.Context) (any, error)
	Restore func(payload json.RawMessage) error
}

// Outcome classifies how a stage concluded.
type Outcome string

const (
	// OutcomeComputed means Run executed and succeeded.
	OutcomeComputed Outcome = "computed"
	// OutcomeCached means the stage was satisfied from the stage cache.
	OutcomeCached Outcome = "cached"
	// OutcomeFailed means Run executed and returned an error.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means the stage never ran: it was disabled, a
	// dependency did not succeed, or a previous required stage aborted the
	// run.
	OutcomeSkipped Outcome = "skipped"
)

// StageStatus records the outcome of one stage within a run.
type StageStatus struct {
	Name     string  `json:"name"`
	Outcome  Outcome `json:"outcome"`
	Required bool    `json:"required"`
	Error    string  `json:"error,omitempty"`
}

// Succeeded reports whether the stage produced usable output.
func (s StageStatus) Succeeded() bool {
	return s.Outcome == OutcomeComputed || s.Outcome == OutcomeCached
}

// Result summarizes a pipeline run. Completed is false when a required stage
// failed; optional-stage failures leave it true.
type Result struct {
	RunID       string        `json:"run_id"`
	Completed   bool          `json:"completed"`
	FailedStage string        `json:"failed_stage,omitempty"`
	Stages      []StageStatus `json:"stages"`
}

// StatusOf returns the recorded status for a stage name.
func (r *Result) StatusOf(name string) (StageStatus, bool) {
	for _, status := range r.Stages {
		if status.Name == name {
			return status, true
		}
	}
	return StageStatus{}, false
}

// Succeeded reports whether the named stage produced usable output.
func (r *Result) Succeeded(name string) bool {
	status, ok := r.StatusOf(name)
	return ok && status.Succeeded()
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Pipeline Run
// =============================================================================

// RunStatus is the lifecycle status of one pipeline run.
type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunRunning   RunStatus = "RUNNING"
	RunSucceeded RunStatus = "SUCCEEDED"
	RunFailed    RunStatus = "FAILED"
)

// Terminal reports whether the run can no longer change state.
func (s RunStatus) Terminal() bool {
	return s == RunSucceeded || s == RunFailed
}

// NodeTrace is one entry of the per-run execution trace. Inputs and outputs
// are truncated and the lead email appears only as a one-way hash.
type NodeTrace struct {
	Node       string  `json:"node"`
	DurationMs float64 `json:"duration_ms"`
	Input      string  `json:"input,omitempty"`
	Output     string  `json:"output,omitempty"`
}

// PipelineRun records one orchestrator invocation for a lead. Immutable once
// its status is terminal.
type PipelineRun struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	Status       RunStatus
	Trace        []NodeTrace
	ErrorMessage string
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// PipelineResult is one entry of a bulk run response: either a run or the
// error that prevented it, never both.
type PipelineResult struct {
	LeadID uuid.UUID    `json:"lead_id"`
	Run    *PipelineRun `json:"run,omitempty"`
	Error  string       `json:"error,omitempty"`
}

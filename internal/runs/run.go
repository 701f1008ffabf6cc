// Package runs records certification pipeline runs and the artifact packages
// they produce.
package runs

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is a pipeline run lifecycle state.
type State string

const (
	StatePending    State = "PENDING"
	StateProcessing State = "PROCESSING"
	StateCompleted  State = "COMPLETED"
	StateFailed     State = "FAILED"
)

// Terminal reports whether no further transitions are allowed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Run is the lifecycle record of one certification.
type Run struct {
	ID           uuid.UUID      `json:"id"`
	AnalysisID   string         `json:"analysis_id"`
	LSU          string         `json:"lsu"`
	AnalysisType string         `json:"analysis_type"`
	State        State          `json:"state"`
	StartedAt    time.Time      `json:"started_at"`
	EndedAt      *time.Time     `json:"ended_at,omitempty"`
	PackageRef   string         `json:"package_ref,omitempty"`
	Error        string         `json:"error,omitempty"`
	Status       string         `json:"status,omitempty"`
	Coherence    *float64       `json:"coherence_score,omitempty"`
	Compliance   string         `json:"compliance_status,omitempty"`
	ProviderUsed string         `json:"provider_used,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Result summarizes a completed run.
type Result struct {
	PackageRef   string
	Status       string
	Coherence    float64
	Compliance   string
	ProviderUsed string
}

// NewRun creates a PENDING run.
func NewRun(analysisID, lsu, analysisType string, metadata map[string]any) *Run {
	return &Run{
		ID:           uuid.New(),
		AnalysisID:   analysisID,
		LSU:          lsu,
		AnalysisType: analysisType,
		State:        StatePending,
		Metadata:     metadata,
	}
}

// Start moves a PENDING run to PROCESSING.
func (r *Run) Start(at time.Time) error {
	if err := r.transition(StatePending, StateProcessing); err != nil {
		return err
	}
	r.StartedAt = at
	return nil
}

// Complete moves a PROCESSING run to COMPLETED with its result.
func (r *Run) Complete(at time.Time, res Result) error {
	if err := r.transition(StateProcessing, StateCompleted); err != nil {
		return err
	}
	r.EndedAt = &at
	r.PackageRef = res.PackageRef
	r.Status = res.Status
	r.Coherence = &res.Coherence
	r.Compliance = res.Compliance
	r.ProviderUsed = res.ProviderUsed
	return nil
}

// Fail moves a PROCESSING run to FAILED with msg.
func (r *Run) Fail(at time.Time, msg string) error {
	if err := r.transition(StateProcessing, StateFailed); err != nil {
		return err
	}
	r.EndedAt = &at
	r.Error = msg
	return nil
}

func (r *Run) transition(from, to State) error {
	if r.State != from {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, r.State, to)
	}
	r.State = to
	return nil
}

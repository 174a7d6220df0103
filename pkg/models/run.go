package models

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle status of a migration run
type RunStatus string

const (
	StatusIdle      RunStatus = "idle"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusAborted   RunStatus = "aborted"
)

// Stage is the orchestrator stage of a running migration
type Stage string

const (
	StageValidating       Stage = "validating"
	StageDiscovering      Stage = "discovering"
	StageProcessingAssets Stage = "processing_assets"
	StageFinalizing       Stage = "finalizing"
)

// AbortReason classifies why a run ended in StatusAborted
type AbortReason string

const (
	AbortConfiguration    AbortReason = "configuration"
	AbortNothingToMigrate AbortReason = "nothing_to_migrate"
	AbortDiscovery        AbortReason = "discovery"
	AbortUnexpected       AbortReason = "unexpected"
)

// Progress is the position of the asset currently being processed
type Progress struct {
	Current int    `json:"current" yaml:"current"`
	Total   int    `json:"total" yaml:"total"`
	Asset   string `json:"asset" yaml:"asset"`
}

// Snapshot is a read-only copy of a Run
type Snapshot struct {
	ID          string        `json:"id" yaml:"id"`
	Status      RunStatus     `json:"status" yaml:"status"`
	Stage       Stage         `json:"stage,omitempty" yaml:"stage,omitempty"`
	Message     string        `json:"message" yaml:"message"`
	Progress    *Progress     `json:"progress,omitempty" yaml:"progress,omitempty"`
	Results     []AssetResult `json:"results" yaml:"results"`
	AbortReason AbortReason   `json:"abort_reason,omitempty" yaml:"abort_reason,omitempty"`
	StartedAt   time.Time     `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	FinishedAt  time.Time     `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// Terminal reports whether the run has completed or aborted
func (s Snapshot) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusAborted
}

// Counts returns the number of successful results and of all other results
func (s Snapshot) Counts() (successes, failures int) {
	for _, result := range s.Results {
		if result.State == StateSuccess {
			successes++
		} else {
			failures++
		}
	}
	return successes, failures
}

// Run is the aggregate state of one migration.
// Only the migrator writes to it; readers use Snapshot or Subscribe.
// Mutations after a terminal status are ignored.
type Run struct {
	mu        sync.RWMutex
	state     Snapshot
	observers []func(Snapshot)
	now       func() time.Time
}

// NewRun creates an idle run with a fresh id
func NewRun() *Run {
	return &Run{
		state: Snapshot{
			ID:      uuid.NewString(),
			Status:  StatusIdle,
			Results: []AssetResult{},
		},
		now: time.Now,
	}
}

// Subscribe registers fn to be called with a snapshot after every mutation
func (r *Run) Subscribe(fn func(Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Snapshot returns a deep copy of the current state
func (r *Run) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyState()
}

// Status returns the current status
func (r *Run) Status() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Status
}

// Start moves an idle run to running in the validating stage
func (r *Run) Start(message string) {
	r.mutate(func(s *Snapshot) {
		s.Status = StatusRunning
		s.Stage = StageValidating
		s.Message = message
		s.StartedAt = r.now()
	})
}

// EnterStage moves the run to a new stage with a status message
func (r *Run) EnterStage(stage Stage, message string) {
	r.mutate(func(s *Snapshot) {
		s.Stage = stage
		s.Message = message
	})
}

// SetMessage replaces the status message
func (r *Run) SetMessage(message string) {
	r.mutate(func(s *Snapshot) {
		s.Message = message
	})
}

// SetProgress overwrites the progress before an asset starts
func (r *Run) SetProgress(progress Progress) {
	r.mutate(func(s *Snapshot) {
		s.Progress = &progress
	})
}

// AppendResult appends one terminal asset record
func (r *Run) AppendResult(result AssetResult) {
	r.mutate(func(s *Snapshot) {
		s.Results = append(s.Results, result)
	})
}

// Complete finishes the run with a summary and clears progress
func (r *Run) Complete(summary string) {
	r.mutate(func(s *Snapshot) {
		s.Status = StatusCompleted
		s.Message = summary
		s.Progress = nil
		s.FinishedAt = r.now()
	})
}

// Abort ends the run early and clears progress
func (r *Run) Abort(reason AbortReason, message string) {
	r.mutate(func(s *Snapshot) {
		s.Status = StatusAborted
		s.AbortReason = reason
		s.Message = message
		s.Progress = nil
		s.FinishedAt = r.now()
	})
}

func (r *Run) mutate(apply func(s *Snapshot)) {
	r.mu.Lock()
	if r.state.Terminal() {
		r.mu.Unlock()
		return
	}
	apply(&r.state)
	snapshot := r.copyState()
	observers := append([]func(Snapshot){}, r.observers...)
	r.mu.Unlock()

	for _, observer := range observers {
		observer(snapshot)
	}
}

// copyState must be called with the lock held
func (r *Run) copyState() Snapshot {
	snapshot := r.state
	snapshot.Results = append([]AssetResult{}, r.state.Results...)
	if r.state.Progress != nil {
		progress := *r.state.Progress
		snapshot.Progress = &progress
	}
	return snapshot
}

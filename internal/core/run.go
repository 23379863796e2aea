package core

import "time"

// Run represents a single execution of the fetch → reconcile → dispatch
// pipeline. A run always completes with counts; errors that abort it early
// are recorded on the run rather than raised past the runner boundary.
type Run struct {
	ID          string     `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      RunStatus  `json:"status"`

	Fetched  int `json:"fetched"`
	Filtered int `json:"filtered"`
	New      int `json:"new"`
	Removed  int `json:"removed"`
	Swept    int `json:"swept"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`

	Error string `json:"error,omitempty"`
}

// RunStatus represents the current state of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusSkipped   RunStatus = "skipped"
)

// TriggerEvent represents a trigger firing.
type TriggerEvent struct {
	Timestamp time.Time
}

package ingest

import "time"

// State is the scheduler lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// PassSummary counts the work done by one pass.
type PassSummary struct {
	Brands       int           `json:"brands"`
	Combinations int           `json:"combinations"`
	Listings     int           `json:"listings"`
	Created      int           `json:"created"`
	Updated      int           `json:"updated"`
	Failures     int           `json:"failures"`
	Completed    bool          `json:"completed"`
	Duration     time.Duration `json:"duration"`
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	State        State        `json:"state"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	Passes       int          `json:"passes"`
	CurrentBrand string       `json:"current_brand,omitempty"`
	CurrentPart  string       `json:"current_part,omitempty"`
	Current      PassSummary  `json:"current"`
	LastPass     *PassSummary `json:"last_pass,omitempty"`
	LastPassAt   *time.Time   `json:"last_pass_at,omitempty"`
}

// StopResult reports how a stop request ended.
type StopResult struct {
	// WasRunning is false when there was nothing to stop.
	WasRunning bool
	// Forced is true when the grace period elapsed and the run was cancelled.
	Forced bool
}

package events

import "github.com/kilianp07/yard/core/model"

// RunPhase tells whether a run started or finished.
type RunPhase string

const (
	RunStarted  RunPhase = "started"
	RunFinished RunPhase = "finished"
)

// RunEvent marks the boundaries of a simulation run.
type RunEvent struct {
	RunID    string     `json:"run_id"`
	Strategy string     `json:"strategy"`
	Phase    RunPhase   `json:"phase"`
	Time     model.Time `json:"time"`
	Cash     int64      `json:"cash"`
	Err      error      `json:"-"`
}

// Package sim drives a tuning session against the offline vehicle model.
//
// The [Runner] plays the role of the driving simulator: it integrates the
// vehicle, measures cross-track error, feeds the session one sample per tick
// with synthetic timestamps and applies the returned steering. Aborted
// windows put the vehicle back at the start line, like a simulator reset.
package sim

import (
	"errors"
	"fmt"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/analysis"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
)

var (
	ErrUnstable = errors.New("sim: vehicle state diverged")
	ErrOffTrack = errors.New("sim: cross-track error exceeded bound")
)

// SimError wraps an error with the tick it happened on.
type SimError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.2f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimError) Unwrap() error {
	return e.Wrapped
}

// Result is the trace of one offline run.
type Result struct {
	Times    []float64
	CTE      []float64
	Steer    []float64
	Windows  []session.Window
	Metrics  map[string]float64
	Weave    analysis.Oscillation
	Final    session.Snapshot
	Steps    int
	Resets   int
	Finished bool // the session's window budget was spent
}

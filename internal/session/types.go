package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/control"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/optim"
)

var ErrNonFinite = errors.New("session: non-finite telemetry value")

// Sample is one telemetry observation.
type Sample struct {
	CTE   float64
	Speed float64
	At    time.Time
}

// Outcome is how an evaluation window was resolved.
type Outcome int

const (
	Improved Outcome = iota
	NotImproved
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Improved:
		return "improved"
	case NotImproved:
		return "not_improved"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	v, err := ParseOutcome(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "improved":
		return Improved, nil
	case "not_improved":
		return NotImproved, nil
	case "aborted":
		return Aborted, nil
	}
	return 0, fmt.Errorf("session: unknown outcome %q", s)
}

// Window records one closed evaluation window.
type Window struct {
	Seq        int           `json:"seq"`
	Trial      string        `json:"trial"`
	TrialState string        `json:"trial_state"`
	Params     optim.Params  `json:"params"`
	DP         optim.Params  `json:"dp"`
	Error      float64       `json:"error"`
	PrevBest   float64       `json:"prev_best"`
	Best       float64       `json:"best"`
	Outcome    Outcome       `json:"outcome"`
	Distance   float64       `json:"distance"`
	Ticks      int           `json:"ticks"`
	Next       optim.Params  `json:"next"`
	NextGains  control.Gains `json:"next_gains"`
}

// Tick is the session's response to one Sample.
type Tick struct {
	Steer    float64
	Throttle float64
	// Window is set when this sample closed an evaluation window.
	Window *Window
}

// Observer receives every tick and every closed window.
type Observer interface {
	OnTick(s Sample, t Tick)
	OnWindow(w Window)
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	Windows     int
	Ticks       int
	Best        float64
	Params      optim.Params
	DP          optim.Params
	Index       int
	Phase       optim.Phase
	Trial       string
	Gains       control.Gains
	Errors      control.Errors
	Distance    float64
	WindowError float64
	Done        bool
}

// HasBest reports whether any window has completed with an improvement.
func (s Snapshot) HasBest() bool {
	return s.Best < noBest
}

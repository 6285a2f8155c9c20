package session

import (
	"fmt"
	"io"
	"math"

	"charm.land/log/v2"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/config"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/control"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/metrics"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/optim"
)

// noBest is the best error before any window has improved on it.
const noBest = math.MaxFloat64

type Session struct {
	cfg    config.Tuning
	pid    *control.PID
	tuner  *optim.Twiddle
	logger *log.Logger

	window   *metrics.SquaredError
	best     float64
	distance float64
	last     Sample
	hasLast  bool
	windows  int
	ticks    int

	observers []Observer
}

// New builds the controller and tuner from cfg. A nil logger discards output.
func New(cfg config.Tuning, logger *log.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tuner, err := optim.NewTwiddle(
		optim.Params(cfg.InitialParams),
		optim.Params(cfg.InitialDP),
		cfg.Upscale,
		cfg.Downscale,
		cfg.StartIndex,
	)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Session{
		cfg:    cfg,
		pid:    control.NewPID(GainsFromParams(tuner.P())),
		tuner:  tuner,
		logger: logger,
		window: metrics.NewSquaredError(),
		best:   noBest,
	}, nil
}

func (s *Session) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Done reports whether the configured window budget is spent. A done
// session keeps steering with its last gains but stops tuning.
func (s *Session) Done() bool {
	return s.cfg.MaxWindows > 0 && s.windows >= s.cfg.MaxWindows
}

// Step consumes one sample and returns the steering command. Non-finite
// values are rejected before any state changes.
func (s *Session) Step(smp Sample) (Tick, error) {
	if !finite(smp.CTE) || !finite(smp.Speed) {
		return Tick{}, fmt.Errorf("%w: cte=%v speed=%v", ErrNonFinite, smp.CTE, smp.Speed)
	}

	if s.hasLast {
		s.distance += smp.Speed * smp.At.Sub(s.last.At).Seconds()
	}

	tick := Tick{Throttle: s.cfg.Throttle}

	if !s.Done() {
		s.window.Observe(smp.CTE, 0)

		updateReady := s.distance > s.cfg.UpdateDistance
		maxExceeded := math.Abs(smp.CTE) > s.cfg.MaxCTE
		if updateReady || maxExceeded {
			w := s.closeWindow(updateReady)
			tick.Window = &w
		}
	}

	steer := -s.pid.Update(smp.CTE)
	if s.cfg.ClampSteering {
		steer = math.Max(-1, math.Min(1, steer))
	}
	tick.Steer = steer

	s.last = smp
	s.hasLast = true
	s.ticks++

	for _, o := range s.observers {
		o.OnTick(smp, tick)
	}
	if tick.Window != nil {
		for _, o := range s.observers {
			o.OnWindow(*tick.Window)
		}
	}
	return tick, nil
}

// closeWindow resolves the current window. A window that did not reach the
// update distance was aborted by the error bound and always counts as bad.
func (s *Session) closeWindow(completed bool) Window {
	e := s.window.Value()
	w := Window{
		Seq:        s.windows + 1,
		Trial:      s.tuner.Describe(),
		TrialState: s.tuner.StateDescribe(),
		Params:     s.tuner.P(),
		DP:         s.tuner.DP(),
		Error:      e,
		PrevBest:   s.best,
		Distance:   s.distance,
		Ticks:      s.window.Samples(),
	}

	s.logger.Info("eval complete", "seq", w.Seq, "trial", w.Trial, "state", w.TrialState)

	switch {
	case !completed:
		w.Outcome = Aborted
		s.tuner.BadOutcome()
		s.logger.Warn("max cte exceeded", "max_cte", s.cfg.MaxCTE, "distance", s.distance)
	case e < s.best:
		w.Outcome = Improved
		s.logger.Info("was best", "error", e, "diff_from_best", s.best-e)
		s.best = e
		s.tuner.GoodOutcome()
	default:
		w.Outcome = NotImproved
		s.logger.Info("not improved", "error", e, "diff_from_best", s.best-e)
		s.tuner.BadOutcome()
	}

	s.pid.SetGains(GainsFromParams(s.tuner.P()))
	if s.cfg.ResetIntegral {
		s.pid.Reset()
	}

	w.Best = s.best
	w.Next = s.tuner.P()
	w.NextGains = s.pid.Gains()
	s.logger.Info("now try", "trial", s.tuner.Describe(), "state", s.tuner.StateDescribe())

	s.distance = 0
	s.window.Reset()
	s.windows++
	return w
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Windows:     s.windows,
		Ticks:       s.ticks,
		Best:        s.best,
		Params:      s.tuner.P(),
		DP:          s.tuner.DP(),
		Index:       s.tuner.Index(),
		Phase:       s.tuner.Phase(),
		Trial:       s.tuner.Describe(),
		Gains:       s.pid.Gains(),
		Errors:      s.pid.Errors(),
		Distance:    s.distance,
		WindowError: s.window.Value(),
		Done:        s.Done(),
	}
}

func (s *Session) Config() config.Tuning { return s.cfg }

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package sim

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/config"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/control"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/vehicle"
)

// Evaluate drives the vehicle with fixed gains and returns the mean squared
// cross-track error. Leaving the track fails with ErrOffTrack.
func Evaluate(ctx context.Context, cfg config.Sim, tuning config.Tuning, g control.Gains) (float64, error) {
	p, err := newPlant(cfg, tuning.Throttle)
	if err != nil {
		return 0, err
	}
	pid := control.NewPID(g)

	x := p.start
	sum := 0.0
	steps := p.steps()
	for i := 0; i < steps; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}

		cte := p.measure(x)
		if math.Abs(cte) > tuning.MaxCTE {
			return 0, &SimError{Step: i, Time: float64(i) * cfg.Dt, Wrapped: ErrOffTrack}
		}
		sum += cte * cte

		steer := -pid.Update(cte)
		if tuning.ClampSteering {
			steer = math.Max(-1, math.Min(1, steer))
		}
		x = p.integ.Step(p.model, x, vehicle.Input{Steer: steer, Throttle: tuning.Throttle}, cfg.Dt)
		if !x.IsValid() {
			return 0, &SimError{Step: i, Time: float64(i) * cfg.Dt, Wrapped: ErrUnstable}
		}
	}
	return sum / float64(steps), nil
}

// EvaluateEnsemble averages Evaluate over runs consecutive noise seeds
// starting at cfg.Seed. Runs execute concurrently; any failure fails the
// ensemble.
func EvaluateEnsemble(ctx context.Context, cfg config.Sim, tuning config.Tuning, g control.Gains, runs int) (float64, error) {
	if runs <= 1 {
		return Evaluate(ctx, cfg, tuning, g)
	}

	scores := make([]float64, runs)
	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < runs; i++ {
		cfgCopy := cfg
		cfgCopy.Seed = cfg.Seed + int64(i)
		eg.Go(func() error {
			v, err := Evaluate(ctx, cfgCopy, tuning, g)
			scores[i] = v
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	mean := 0.0
	for _, v := range scores {
		mean += v
	}
	return mean / float64(runs), nil
}

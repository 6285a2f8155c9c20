package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/analysis"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/config"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/integrators"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/metrics"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/vehicle"
)

// epoch anchors the synthetic sample clock.
var epoch = time.Unix(0, 0).UTC()

// plant bundles the vehicle, its path and the sensor.
type plant struct {
	cfg   config.Sim
	model *vehicle.Bicycle
	path  vehicle.Path
	integ vehicle.Integrator
	rng   *rand.Rand
	start vehicle.State
}

func newPlant(cfg config.Sim, throttle float64) (*plant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if throttle <= 0 {
		return nil, fmt.Errorf("%w: throttle = %v", config.ErrInvalid, throttle)
	}
	integ, err := integrators.Get(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	model := vehicle.NewBicycle(cfg.Wheelbase, cfg.MaxSteerDeg)
	model.Cruise(cfg.Speed, throttle)
	path := vehicle.Path{Amplitude: cfg.Amplitude, Wavelength: cfg.Wavelength}

	return &plant{
		cfg:   cfg,
		model: model,
		path:  path,
		integ: integ,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		start: path.Start(cfg.InitialCTE, cfg.Speed),
	}, nil
}

func (p *plant) measure(x vehicle.State) float64 {
	cte := p.path.CTE(x)
	if p.cfg.Noise > 0 {
		cte += p.rng.NormFloat64() * p.cfg.Noise
	}
	return cte
}

func (p *plant) steps() int {
	return int(p.cfg.Duration / p.cfg.Dt)
}

func (p *plant) at(step int) time.Time {
	return epoch.Add(time.Duration(math.Round(float64(step) * p.cfg.Dt * float64(time.Second))))
}

type Runner struct {
	plant   *plant
	sess    *session.Session
	metrics []metrics.Metric
}

func New(cfg config.Sim, sess *session.Session) (*Runner, error) {
	p, err := newPlant(cfg, sess.Config().Throttle)
	if err != nil {
		return nil, err
	}
	return &Runner{
		plant:   p,
		sess:    sess,
		metrics: metrics.Default(sess.Config().MaxCTE),
	}, nil
}

// Run drives the session until the configured duration elapses, the
// session's window budget is spent or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	p := r.plant
	steps := p.steps()
	result := &Result{
		Times:   make([]float64, 0, steps),
		CTE:     make([]float64, 0, steps),
		Steer:   make([]float64, 0, steps),
		Metrics: make(map[string]float64),
	}
	for _, m := range r.metrics {
		m.Reset()
	}

	x := p.start
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			r.finish(result)
			return result, ctx.Err()
		default:
		}

		t := float64(i) * p.cfg.Dt
		cte := p.measure(x)
		tick, err := r.sess.Step(session.Sample{CTE: cte, Speed: x[vehicle.IV], At: p.at(i)})
		if err != nil {
			r.finish(result)
			return result, &SimError{Step: i, Time: t, Wrapped: err}
		}

		for _, m := range r.metrics {
			m.Observe(cte, tick.Steer)
		}
		result.Times = append(result.Times, t)
		result.CTE = append(result.CTE, cte)
		result.Steer = append(result.Steer, tick.Steer)
		result.Steps++

		reset := false
		if tick.Window != nil {
			result.Windows = append(result.Windows, *tick.Window)
			reset = tick.Window.Outcome == session.Aborted
		}
		if r.sess.Done() {
			result.Finished = true
			break
		}
		if reset {
			x = p.start
			result.Resets++
			continue
		}

		x = p.integ.Step(p.model, x, vehicle.Input{Steer: tick.Steer, Throttle: tick.Throttle}, p.cfg.Dt)
		if !x.IsValid() {
			r.finish(result)
			return result, &SimError{Step: i, Time: t, Wrapped: ErrUnstable}
		}
	}

	r.finish(result)
	return result, nil
}

func (r *Runner) finish(result *Result) {
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Weave = analysis.Weave(result.CTE, r.plant.cfg.Dt)
	result.Final = r.sess.Snapshot()
}

package integrators

import (
	"fmt"
	"sort"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/vehicle"
)

// StepFunc adapts a plain step function to vehicle.Integrator.
type StepFunc func(m vehicle.Model, x vehicle.State, u vehicle.Input, dt float64) vehicle.State

func (f StepFunc) Step(m vehicle.Model, x vehicle.State, u vehicle.Input, dt float64) vehicle.State {
	return f(m, x, u, dt)
}

// NewEuler returns the explicit first-order step.
func NewEuler() vehicle.Integrator { return StepFunc(euler) }

func euler(m vehicle.Model, x vehicle.State, u vehicle.Input, dt float64) vehicle.State {
	dx := m.Derive(x, u)
	for i := range x {
		x[i] += dt * dx[i]
	}
	return x
}

var registry = map[string]func() vehicle.Integrator{
	"euler": func() vehicle.Integrator { return NewEuler() },
	"rk4":   func() vehicle.Integrator { return NewRK4() },
}

func Get(name string) (vehicle.Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

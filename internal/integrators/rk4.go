package integrators

import "github.com/Rob-Crane/CarND-PID-Control-Project/internal/vehicle"

// RK4 is the classic fourth-order Runge-Kutta step. The input is held
// constant across the step.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(m vehicle.Model, x vehicle.State, u vehicle.Input, dt float64) vehicle.State {
	var scratch vehicle.State

	k1 := m.Derive(x, u)

	for i := range x {
		scratch[i] = x[i] + dt*0.5*k1[i]
	}
	k2 := m.Derive(scratch, u)

	for i := range x {
		scratch[i] = x[i] + dt*0.5*k2[i]
	}
	k3 := m.Derive(scratch, u)

	for i := range x {
		scratch[i] = x[i] + dt*k3[i]
	}
	k4 := m.Derive(scratch, u)

	var result vehicle.State
	dt6 := dt / 6.0
	for i := range x {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return result
}

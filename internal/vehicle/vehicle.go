// Package vehicle models a car following a reference path, for tuning the
// steering controller offline.
package vehicle

import "math"

// State indices.
const (
	IX = iota
	IY
	IPsi
	IV

	Dim
)

// State is (x, y, heading, speed).
type State [Dim]float64

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Input is one steering/throttle command. Steer is normalised to [-1, 1];
// positive values turn left.
type Input struct {
	Steer    float64
	Throttle float64
}

type Model interface {
	Derive(x State, u Input) State
}

type Integrator interface {
	Step(m Model, x State, u Input, dt float64) State
}

// Bicycle is a kinematic bicycle model with first-order speed dynamics.
type Bicycle struct {
	Wheelbase float64
	MaxSteer  float64 // radians at |Steer| = 1
	Accel     float64 // acceleration per unit throttle
	Drag      float64 // linear speed damping
}

func NewBicycle(wheelbase, maxSteerDeg float64) *Bicycle {
	return &Bicycle{
		Wheelbase: wheelbase,
		MaxSteer:  maxSteerDeg * math.Pi / 180,
		Drag:      0.5,
	}
}

// Cruise sets Accel so that the steady-state speed at throttle is speed.
func (b *Bicycle) Cruise(speed, throttle float64) {
	if throttle == 0 {
		b.Accel = 0
		return
	}
	b.Accel = speed * b.Drag / throttle
}

func (b *Bicycle) Derive(x State, u Input) State {
	steer := math.Max(-1, math.Min(1, u.Steer))
	delta := steer * b.MaxSteer
	v := x[IV]

	var dx State
	dx[IX] = v * math.Cos(x[IPsi])
	dx[IY] = v * math.Sin(x[IPsi])
	dx[IPsi] = v / b.Wheelbase * math.Tan(delta)
	dx[IV] = b.Accel*u.Throttle - b.Drag*v
	return dx
}

// Path is the reference line y = A·sin(2πx/λ).
type Path struct {
	Amplitude  float64
	Wavelength float64
}

func (p Path) Y(x float64) float64 {
	return p.Amplitude * math.Sin(2*math.Pi*x/p.Wavelength)
}

func (p Path) Slope(x float64) float64 {
	k := 2 * math.Pi / p.Wavelength
	return p.Amplitude * k * math.Cos(k*x)
}

func (p Path) Heading(x float64) float64 {
	return math.Atan(p.Slope(x))
}

// CTE is the signed perpendicular offset from the path, positive when the
// vehicle is to the left of it.
func (p Path) CTE(s State) float64 {
	slope := p.Slope(s[IX])
	return (s[IY] - p.Y(s[IX])) / math.Sqrt(1+slope*slope)
}

// Start places a vehicle at x=0 with the given offset, aligned with the path.
func (p Path) Start(offset, speed float64) State {
	h := p.Heading(0)
	var s State
	s[IX] = -offset * math.Sin(h)
	s[IY] = p.Y(0) + offset*math.Cos(h)
	s[IPsi] = h
	s[IV] = speed
	return s
}

package control

import "fmt"

// Gains holds the three PID coefficients.
type Gains struct {
	Kp float64 `json:"kp" yaml:"kp"`
	Ki float64 `json:"ki" yaml:"ki"`
	Kd float64 `json:"kd" yaml:"kd"`
}

func (g Gains) String() string {
	return fmt.Sprintf("Kp=%g Ki=%g Kd=%g", g.Kp, g.Ki, g.Kd)
}

// Errors is a snapshot of the controller's error terms.
type Errors struct {
	P float64
	I float64
	D float64
}

type PID struct {
	gains Gains
	pErr  float64
	iErr  float64
	dErr  float64
	first bool
}

func NewPID(g Gains) *PID {
	return &PID{
		gains: g,
		first: true,
	}
}

// Update feeds one cross-track error sample and returns the control output.
// The first sample after construction or Reset seeds the derivative
// baseline, so its derivative term is zero.
func (p *PID) Update(cte float64) float64 {
	if p.first {
		p.pErr = cte
		p.first = false
	}

	p.iErr += cte
	p.dErr = cte - p.pErr
	p.pErr = cte

	return p.gains.Kp*p.pErr + p.gains.Ki*p.iErr + p.gains.Kd*p.dErr
}

// SetGains replaces all three coefficients. Error state is untouched.
func (p *PID) SetGains(g Gains) {
	p.gains = g
}

func (p *PID) Gains() Gains {
	return p.gains
}

func (p *PID) Errors() Errors {
	return Errors{P: p.pErr, I: p.iErr, D: p.dErr}
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.pErr = 0
	p.iErr = 0
	p.dErr = 0
	p.first = true
}

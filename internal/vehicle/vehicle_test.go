package vehicle

import (
	"math"
	"testing"
)

func TestPathCTESign(t *testing.T) {
	p := Path{Amplitude: 0, Wavelength: 100}

	left := State{IX: 5, IY: 2}
	if got := p.CTE(left); got != 2 {
		t.Errorf("expected cte 2 left of path, got %f", got)
	}
	right := State{IX: 5, IY: -1.5}
	if got := p.CTE(right); got != -1.5 {
		t.Errorf("expected cte -1.5 right of path, got %f", got)
	}
}

func TestPathStartOffset(t *testing.T) {
	p := Path{Amplitude: 6, Wavelength: 300}
	s := p.Start(1.0, 20)

	if math.Abs(p.CTE(s)-1.0) > 1e-3 {
		t.Errorf("expected start cte ~1.0, got %f", p.CTE(s))
	}
	if s[IPsi] != p.Heading(0) {
		t.Errorf("expected heading aligned with path")
	}
	if s[IV] != 20 {
		t.Errorf("expected speed 20, got %f", s[IV])
	}
}

func TestBicycleStraight(t *testing.T) {
	b := NewBicycle(2.67, 25)
	b.Cruise(20, 0.2)

	dx := b.Derive(State{IV: 20}, Input{Throttle: 0.2})
	if dx[IX] != 20 || dx[IY] != 0 || dx[IPsi] != 0 {
		t.Errorf("unexpected derivative for straight driving: %v", dx)
	}
	if math.Abs(dx[IV]) > 1e-12 {
		t.Errorf("expected steady speed at cruise throttle, got dv=%f", dx[IV])
	}
}

func TestBicycleSteerDirection(t *testing.T) {
	b := NewBicycle(2.67, 25)
	if dx := b.Derive(State{IV: 10}, Input{Steer: 0.5}); dx[IPsi] <= 0 {
		t.Errorf("positive steer should turn left, got yaw rate %f", dx[IPsi])
	}
	if dx := b.Derive(State{IV: 10}, Input{Steer: -0.5}); dx[IPsi] >= 0 {
		t.Errorf("negative steer should turn right, got yaw rate %f", dx[IPsi])
	}
}

func TestBicycleSteerSaturates(t *testing.T) {
	b := NewBicycle(2.67, 25)
	a := b.Derive(State{IV: 10}, Input{Steer: 1})
	c := b.Derive(State{IV: 10}, Input{Steer: 40})
	if a[IPsi] != c[IPsi] {
		t.Errorf("steer beyond 1 should saturate: %f vs %f", a[IPsi], c[IPsi])
	}
}

func TestStateIsValid(t *testing.T) {
	if !(State{1, 2, 3, 4}).IsValid() {
		t.Error("finite state reported invalid")
	}
	if (State{1, math.NaN(), 3, 4}).IsValid() {
		t.Error("NaN state reported valid")
	}
}

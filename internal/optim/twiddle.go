package optim

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Parameter indices within Params.
const (
	IndexP = iota
	IndexD
	IndexI

	NumParams
)

var ErrIndexRange = errors.New("optim: parameter index out of range")

// Params is a parameter (or step size) vector in (P, D, I) order.
type Params [NumParams]float64

func (p Params) Sum() float64 {
	s := 0.0
	for _, v := range p {
		s += v
	}
	return s
}

func (p Params) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.FormatFloat(v, 'g', 6, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Phase is the perturbation direction under evaluation for the active index.
type Phase int

const (
	TryAdd Phase = iota
	TrySub
)

func (ph Phase) String() string {
	switch ph {
	case TryAdd:
		return "TryAdd"
	case TrySub:
		return "TrySub"
	default:
		return fmt.Sprintf("Phase(%d)", int(ph))
	}
}

// Twiddle holds one coordinate-ascent search over a Params vector.
//
// Exactly one index is active at a time. Its two candidate directions are
// exhausted (or the addition succeeds) before the index advances.
type Twiddle struct {
	p         Params
	dp        Params
	upscale   float64
	downscale float64
	i         int
	phase     Phase
}

// NewTwiddle starts a search in TryAdd on index start. The initial vector is
// not perturbed: the first window evaluates p as given.
func NewTwiddle(p, dp Params, upscale, downscale float64, start int) (*Twiddle, error) {
	if start < 0 || start >= NumParams {
		return nil, fmt.Errorf("%w: start index %d", ErrIndexRange, start)
	}
	return &Twiddle{
		p:         p,
		dp:        dp,
		upscale:   upscale,
		downscale: downscale,
		i:         start,
		phase:     TryAdd,
	}, nil
}

// GoodOutcome grows the active step, advances to the next index and applies
// its +dp trial.
func (t *Twiddle) GoodOutcome() {
	t.dp[t.i] *= t.upscale
	t.phase = TryAdd
	t.advance()
}

// BadOutcome flips a failed addition into a subtraction trial. A failed
// subtraction restores the coordinate, shrinks its step and advances.
func (t *Twiddle) BadOutcome() {
	switch t.phase {
	case TryAdd:
		t.p[t.i] -= 2 * t.dp[t.i]
		t.phase = TrySub
	case TrySub:
		t.p[t.i] += t.dp[t.i]
		t.dp[t.i] *= t.downscale
		t.phase = TryAdd
		t.advance()
	}
}

func (t *Twiddle) advance() {
	t.i = (t.i + 1) % NumParams
	t.p[t.i] += t.dp[t.i]
}

func (t *Twiddle) P() Params    { return t.p }
func (t *Twiddle) DP() Params   { return t.dp }
func (t *Twiddle) Index() int   { return t.i }
func (t *Twiddle) Phase() Phase { return t.phase }

// Describe renders the trial under evaluation, e.g. "p[1]: -0.3".
func (t *Twiddle) Describe() string {
	sign := "+"
	if t.phase == TrySub {
		sign = "-"
	}
	return fmt.Sprintf("p[%d]: %s%s", t.i, sign, strconv.FormatFloat(t.dp[t.i], 'g', 6, 64))
}

// StateDescribe renders both vectors, e.g. "P[0, 1, 0] dP[1.1, 1, 1]".
func (t *Twiddle) StateDescribe() string {
	return fmt.Sprintf("P%s dP%s", t.p, t.dp)
}

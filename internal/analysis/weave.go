package analysis

import "math"

// Oscillation describes the dominant periodic motion of a trace.
type Oscillation struct {
	Frequency float64 // Hz
	Period    float64 // seconds, zero when there is no oscillation
	Amplitude float64 // half the peak to peak range after the mean is removed
}

// Weave finds the strongest non-constant frequency in a trace sampled every
// dt seconds.
func Weave(trace []float64, dt float64) Oscillation {
	if len(trace) < 4 || dt <= 0 {
		return Oscillation{}
	}

	ps := PowerSpectrum(trace)
	if len(ps) < 2 {
		return Oscillation{}
	}
	// bin 0 is the mean, which PowerSpectrum removes
	peak := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[peak] {
			peak = i
		}
	}

	var o Oscillation
	if ps[peak] > 0 {
		n := 2 * len(ps)
		o.Frequency = float64(peak) / (float64(n) * dt)
		o.Period = 1 / o.Frequency
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range trace {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	o.Amplitude = (hi - lo) / 2
	return o
}

// ZeroCrossings counts sign changes, ignoring exact zeros.
func ZeroCrossings(trace []float64) int {
	n := 0
	prev := 0.0
	for _, v := range trace {
		if v == 0 {
			continue
		}
		if prev != 0 && (v > 0) != (prev > 0) {
			n++
		}
		prev = v
	}
	return n
}

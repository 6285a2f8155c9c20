package analysis

import (
	"math"
	"testing"
)

func TestFFTImpulse(t *testing.T) {
	out := FFT([]float64{1, 0, 0, 0, 0, 0, 0, 0})
	for i, c := range out {
		if math.Abs(real(c)-1) > 1e-12 || math.Abs(imag(c)) > 1e-12 {
			t.Errorf("bin %d: expected 1, got %v", i, c)
		}
	}
}

func TestPowerSpectrumPads(t *testing.T) {
	ps := PowerSpectrum(make([]float64, 100))
	if len(ps) != 64 {
		t.Errorf("expected 64 bins, got %d", len(ps))
	}
	if PowerSpectrum(nil) != nil {
		t.Error("expected nil spectrum for empty input")
	}
}

func TestWeaveFindsSine(t *testing.T) {
	dt := 1.0 / 64
	trace := make([]float64, 1024)
	for i := range trace {
		trace[i] = 0.3 + 1.5*math.Sin(2*math.Pi*0.5*float64(i)*dt)
	}

	w := Weave(trace, dt)
	if math.Abs(w.Frequency-0.5) > 1e-9 {
		t.Errorf("expected 0.5 Hz, got %f", w.Frequency)
	}
	if math.Abs(w.Period-2) > 1e-9 {
		t.Errorf("expected period 2s, got %f", w.Period)
	}
	if math.Abs(w.Amplitude-1.5) > 1e-6 {
		t.Errorf("expected amplitude 1.5, got %f", w.Amplitude)
	}
}

func TestWeaveFlatTrace(t *testing.T) {
	w := Weave([]float64{2, 2, 2, 2, 2, 2}, 0.1)
	if w.Frequency != 0 || w.Period != 0 || w.Amplitude != 0 {
		t.Errorf("expected no oscillation, got %+v", w)
	}
	if (Weave([]float64{1, -1}, 0.1) != Oscillation{}) {
		t.Error("expected empty result for short trace")
	}
}

func TestZeroCrossings(t *testing.T) {
	tests := []struct {
		trace []float64
		want  int
	}{
		{nil, 0},
		{[]float64{1, 2, 3}, 0},
		{[]float64{1, -1, 1, -1}, 3},
		{[]float64{1, 0, -1}, 1},
		{[]float64{0, 0, -1, 0, 2}, 1},
	}
	for _, tt := range tests {
		if got := ZeroCrossings(tt.trace); got != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.trace, tt.want, got)
		}
	}
}

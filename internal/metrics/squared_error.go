package metrics

import "math"

// SquaredError is the evaluation-window objective: the sum of cte².
type SquaredError struct {
	name    string
	sum     float64
	samples int
}

func NewSquaredError() *SquaredError {
	return &SquaredError{name: "squared_error"}
}

func (s *SquaredError) Name() string { return s.name }

func (s *SquaredError) Observe(cte, steer float64) {
	s.sum += cte * cte
	s.samples++
}

func (s *SquaredError) Value() float64 { return s.sum }

func (s *SquaredError) Samples() int { return s.samples }

func (s *SquaredError) Reset() {
	s.sum = 0
	s.samples = 0
}

type MeanSquaredError struct {
	SquaredError
}

func NewMeanSquaredError() *MeanSquaredError {
	return &MeanSquaredError{SquaredError{name: "mse"}}
}

func (m *MeanSquaredError) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

// MaxAbs tracks the largest |cte| seen.
type MaxAbs struct {
	max float64
}

func NewMaxAbs() *MaxAbs { return &MaxAbs{} }

func (m *MaxAbs) Name() string { return "max_abs_cte" }

func (m *MaxAbs) Observe(cte, steer float64) {
	m.max = math.Max(m.max, math.Abs(cte))
}

func (m *MaxAbs) Value() float64 { return m.max }

func (m *MaxAbs) Reset() { m.max = 0 }

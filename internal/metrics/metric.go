// Package metrics accumulates per-tick statistics over cross-track error and
// steering output.
package metrics

// Metric observes one (cte, steer) sample per tick.
type Metric interface {
	Name() string
	Observe(cte, steer float64)
	Value() float64
	Reset()
}

// Default returns the metrics recorded for every offline run.
func Default(maxCTE float64) []Metric {
	return []Metric{
		NewSquaredError(),
		NewMeanSquaredError(),
		NewMaxAbs(),
		NewOnTrack(maxCTE),
		NewControlEffort(),
	}
}

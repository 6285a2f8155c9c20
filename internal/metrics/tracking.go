package metrics

import "math"

// OnTrack is the fraction of ticks whose |cte| stayed within limit. Runs
// that never observed a tick count as fully on track.
type OnTrack struct {
	limit  float64
	ticks  int
	onPath int
}

func NewOnTrack(limit float64) *OnTrack { return &OnTrack{limit: limit} }

func (o *OnTrack) Name() string { return "on_track" }

func (o *OnTrack) Observe(cte, steer float64) {
	o.ticks++
	if math.Abs(cte) <= o.limit {
		o.onPath++
	}
}

func (o *OnTrack) Value() float64 {
	if o.ticks == 0 {
		return 1
	}
	return float64(o.onPath) / float64(o.ticks)
}

func (o *OnTrack) Reset() { o.ticks, o.onPath = 0, 0 }

// ControlEffort is the mean |steer| per tick.
type ControlEffort struct {
	total float64
	ticks int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(cte, steer float64) {
	c.total += math.Abs(steer)
	c.ticks++
}

func (c *ControlEffort) Value() float64 {
	if c.ticks == 0 {
		return 0
	}
	return c.total / float64(c.ticks)
}

func (c *ControlEffort) Reset() { c.total, c.ticks = 0, 0 }

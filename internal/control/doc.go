// Package control provides the steering controller driven by cross-track error.
//
// [PID] maps a stream of scalar error observations to a control output using
// proportional, integral and derivative terms:
//
//	pid := control.NewPID(control.Gains{Kp: 0.5, Ki: 0.0003, Kd: 9.7})
//	steer := -pid.Update(cte)
//
// Gains are replaced as a unit with [PID.SetGains]. Replacing gains never
// touches the accumulated error state, so integral windup carries across gain
// changes until [PID.Reset] is called explicitly.
//
// A PID instance is not safe for concurrent use.
package control

// Package session runs the evaluation loop that ties the steering controller
// to the twiddle tuner.
//
// A [Session] consumes one telemetry [Sample] per tick and returns the
// steering command. It accumulates squared cross-track error and travelled
// distance; when the distance exceeds the configured window length, or the
// error exceeds the abort bound, it closes the window, reports the outcome to
// the tuner and pushes the tuner's next trial into the controller before the
// current sample is steered.
//
// Everything the loop needs between ticks (best error so far, distance,
// last sample time) lives on the Session. Drivers own one Session each and
// call it from a single goroutine.
package session

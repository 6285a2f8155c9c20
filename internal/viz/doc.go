// Package viz renders a live terminal dashboard of a tuning session.
//
// A [Feed] is attached to the session as an observer and forwards ticks and
// closed windows to a Bubble Tea [Model], which draws the cross-track error
// trace, the error of each evaluation window and the parameters currently
// being tried.
//
// # Key Bindings
//
//	T - Cycle color themes
//	? - Show help overlay
//	Q - Quit
package viz

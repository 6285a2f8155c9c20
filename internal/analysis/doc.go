// Package analysis characterizes the cross-track error trace of a run.
//
// A steering loop with too little damping weaves around the path. [Weave]
// finds the dominant frequency of that motion from the power spectrum:
//
//	w := analysis.Weave(result.CTE, dt)
//	if w.Amplitude > 0.5 {
//	    // more derivative gain
//	}
package analysis

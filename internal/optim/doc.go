// Package optim provides gain search strategies.
//
// [Twiddle] is an online coordinate-ascent search with adaptive step size.
// It is driven by a binary quality signal reported once per evaluation
// window and always leaves its parameter vector holding the next trial to
// evaluate:
//
//	tw, _ := optim.NewTwiddle(p, dp, 1.1, 0.9, 0)
//	for each window {
//		if improved { tw.GoodOutcome() } else { tw.BadOutcome() }
//		apply(tw.P())
//	}
//
// [GridSearch] exhaustively scores every combination of candidate values
// with a caller-supplied objective.
//
// Parameters are ordered (P, D, I). Callers wiring a [Params] vector into a
// controller must map the indices explicitly.
package optim

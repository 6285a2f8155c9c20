package optim

import (
	"context"
	"errors"
	"math"
)

var ErrNoCandidates = errors.New("optim: no candidate could be evaluated")

// Objective scores one parameter vector; lower is better.
type Objective func(ctx context.Context, p Params) (float64, error)

type GridSearch struct {
	ranges [NumParams][]float64
}

// NewGridSearch searches the cartesian product of ranges, indexed like
// Params. An empty range pins that coordinate to zero.
func NewGridSearch(ranges [NumParams][]float64) *GridSearch {
	return &GridSearch{ranges: ranges}
}

// Size is the number of candidates Search evaluates.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		if len(r) > 0 {
			n *= len(r)
		}
	}
	return n
}

// Search evaluates every candidate and returns the best one. Candidates
// whose objective fails or is NaN are skipped.
func (g *GridSearch) Search(ctx context.Context, obj Objective) (Params, float64, error) {
	best := math.Inf(1)
	var bestParams Params
	found := false

	err := g.searchRecursive(ctx, 0, Params{}, obj, &best, &bestParams, &found)
	if err != nil {
		return bestParams, best, err
	}
	if !found {
		return bestParams, best, ErrNoCandidates
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current Params,
	obj Objective,
	best *float64,
	bestParams *Params,
	found *bool,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == NumParams {
		val, err := obj(ctx, current)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}
		if math.IsNaN(val) {
			return nil
		}
		if !*found || val < *best {
			*best = val
			*bestParams = current
			*found = true
		}
		return nil
	}

	values := g.ranges[depth]
	if len(values) == 0 {
		return g.searchRecursive(ctx, depth+1, current, obj, best, bestParams, found)
	}
	for _, val := range values {
		next := current
		next[depth] = val
		if err := g.searchRecursive(ctx, depth+1, next, obj, best, bestParams, found); err != nil {
			return err
		}
	}
	return nil
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

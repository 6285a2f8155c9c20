package optim_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/optim"
)

var _ = Describe("GridSearch", func() {
	bowl := func(_ context.Context, p optim.Params) (float64, error) {
		return (p[0]-1)*(p[0]-1) + (p[1]-2)*(p[1]-2) + p[2]*p[2], nil
	}

	It("finds the grid point at the minimum", func() {
		g := optim.NewGridSearch([optim.NumParams][]float64{
			optim.Linspace(0, 2, 5),
			optim.Linspace(0, 4, 5),
			{-1, 0, 1},
		})
		Expect(g.Size()).To(Equal(75))

		p, best, err := g.Search(context.Background(), bowl)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(optim.Params{1, 2, 0}))
		Expect(best).To(BeNumerically("~", 0, 1e-12))
	})

	It("pins empty ranges to zero", func() {
		g := optim.NewGridSearch([optim.NumParams][]float64{{1}, nil, nil})
		Expect(g.Size()).To(Equal(1))
		p, _, err := g.Search(context.Background(), bowl)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(optim.Params{1, 0, 0}))
	})

	It("reports when every candidate fails", func() {
		g := optim.NewGridSearch([optim.NumParams][]float64{{1, 2}, {1}, {1}})
		_, _, err := g.Search(context.Background(), func(context.Context, optim.Params) (float64, error) {
			return 0, errors.New("diverged")
		})
		Expect(err).To(MatchError(optim.ErrNoCandidates))
	})

	It("stops on cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		g := optim.NewGridSearch([optim.NumParams][]float64{{1, 2}, {1}, {1}})
		_, _, err := g.Search(ctx, bowl)
		Expect(err).To(MatchError(context.Canceled))
	})
})

package optim_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/optim"
)

var _ = Describe("Twiddle", func() {
	var tw *optim.Twiddle

	BeforeEach(func() {
		var err error
		tw, err = optim.NewTwiddle(optim.Params{0, 0, 0}, optim.Params{1, 1, 1}, 1.1, 0.9, 0)
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts unperturbed in TryAdd", func() {
		Expect(tw.P()).To(Equal(optim.Params{0, 0, 0}))
		Expect(tw.DP()).To(Equal(optim.Params{1, 1, 1}))
		Expect(tw.Index()).To(Equal(0))
		Expect(tw.Phase()).To(Equal(optim.TryAdd))
	})

	It("rejects a start index outside 0..2", func() {
		for _, start := range []int{-1, 3, 7} {
			_, err := optim.NewTwiddle(optim.Params{}, optim.Params{}, 1.1, 0.9, start)
			Expect(err).To(MatchError(optim.ErrIndexRange))
		}
	})

	Context("on a good outcome in TryAdd", func() {
		It("grows the step and perturbs the next coordinate", func() {
			tw.GoodOutcome()
			Expect(tw.DP()).To(Equal(optim.Params{1.1, 1, 1}))
			Expect(tw.Index()).To(Equal(1))
			Expect(tw.P()).To(Equal(optim.Params{0, 1, 0}))
			Expect(tw.Phase()).To(Equal(optim.TryAdd))
		})
	})

	Context("on a bad outcome in TryAdd", func() {
		It("switches to the subtraction trial on the same coordinate", func() {
			tw.BadOutcome()
			Expect(tw.P()).To(Equal(optim.Params{-2, 0, 0}))
			Expect(tw.DP()).To(Equal(optim.Params{1, 1, 1}))
			Expect(tw.Index()).To(Equal(0))
			Expect(tw.Phase()).To(Equal(optim.TrySub))
		})
	})

	Context("in TrySub", func() {
		BeforeEach(func() {
			tw.BadOutcome()
		})

		It("restores, shrinks and advances on a second bad outcome", func() {
			tw.BadOutcome()
			Expect(tw.P()).To(Equal(optim.Params{-1, 1, 0}))
			Expect(tw.DP()).To(Equal(optim.Params{0.9, 1, 1}))
			Expect(tw.Index()).To(Equal(1))
			Expect(tw.Phase()).To(Equal(optim.TryAdd))
		})

		It("keeps the subtraction and grows the step on a good outcome", func() {
			tw.GoodOutcome()
			Expect(tw.P()).To(Equal(optim.Params{-2, 1, 0}))
			Expect(tw.DP()).To(Equal(optim.Params{1.1, 1, 1}))
			Expect(tw.Index()).To(Equal(1))
			Expect(tw.Phase()).To(Equal(optim.TryAdd))
		})
	})

	It("wraps the active index from 2 back to 0", func() {
		tw, err := optim.NewTwiddle(optim.Params{}, optim.Params{1, 2, 3}, 1.1, 0.9, 2)
		Expect(err).NotTo(HaveOccurred())
		tw.GoodOutcome()
		Expect(tw.Index()).To(Equal(0))
		Expect(tw.P()).To(Equal(optim.Params{1, 0, 0}))
	})

	It("holds its state invariant under any outcome sequence", func() {
		outcomes := []bool{true, false, false, true, false, true, true, false, false, false, true}
		for n := 0; n < 30; n++ {
			for _, good := range outcomes {
				if good {
					tw.GoodOutcome()
				} else {
					tw.BadOutcome()
				}
				Expect(tw.Index()).To(BeNumerically(">=", 0))
				Expect(tw.Index()).To(BeNumerically("<", optim.NumParams))
				Expect(tw.Phase()).To(Or(Equal(optim.TryAdd), Equal(optim.TrySub)))
				for _, d := range tw.DP() {
					Expect(d).To(BeNumerically(">=", 0))
				}
			}
		}
	})

	Describe("rendering", func() {
		It("describes the pending trial", func() {
			Expect(tw.Describe()).To(Equal("p[0]: +1"))
			tw.BadOutcome()
			Expect(tw.Describe()).To(Equal("p[0]: -1"))
		})

		It("describes both vectors", func() {
			tw.GoodOutcome()
			Expect(tw.StateDescribe()).To(Equal("P[0, 1, 0] dP[1.1, 1, 1]"))
		})
	})

	Describe("convergence on a synthetic objective", func() {
		target := optim.Params{0.4, 3.0, -1.5}
		objective := func(p optim.Params) float64 {
			s := 0.0
			for i := range p {
				d := p[i] - target[i]
				s += d * d
			}
			return s
		}

		It("never loses its best-so-far record and closes in on the minimum", func() {
			tw, err := optim.NewTwiddle(optim.Params{0, 0, 0}, optim.Params{1, 1, 1}, 1.1, 0.9, 0)
			Expect(err).NotTo(HaveOccurred())

			best := math.Inf(1)
			initialStep := tw.DP().Sum()
			for window := 0; window < 3000; window++ {
				e := objective(tw.P())
				prev := best
				if e < best {
					best = e
					tw.GoodOutcome()
				} else {
					tw.BadOutcome()
				}
				Expect(best).To(BeNumerically("<=", prev))
			}

			Expect(best).To(BeNumerically("<", 1e-3))
			Expect(tw.DP().Sum()).To(BeNumerically("<", initialStep))
		})
	})
})

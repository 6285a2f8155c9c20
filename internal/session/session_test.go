package session_test

import (
	"bytes"
	"math"
	"time"

	"charm.land/log/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/config"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/control"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/optim"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
)

type recorder struct {
	ticks   []session.Tick
	windows []session.Window
}

func (r *recorder) OnTick(_ session.Sample, t session.Tick) { r.ticks = append(r.ticks, t) }
func (r *recorder) OnWindow(w session.Window)               { r.windows = append(r.windows, w) }

var _ = Describe("Gain mapping", func() {
	It("maps (P, D, I) onto Kp, Kd, Ki by name", func() {
		g := session.GainsFromParams(optim.Params{1, 2, 3})
		Expect(g).To(Equal(control.Gains{Kp: 1, Ki: 3, Kd: 2}))
		Expect(session.ParamsFromGains(g)).To(Equal(optim.Params{1, 2, 3}))
	})
})

var _ = Describe("Session", func() {
	var (
		cfg   config.Tuning
		s     *session.Session
		rec   *recorder
		start time.Time
		clock int
	)

	step := func(cte float64) session.Tick {
		t, err := s.Step(session.Sample{
			CTE:   cte,
			Speed: 10,
			At:    start.Add(time.Duration(clock) * time.Second),
		})
		Expect(err).NotTo(HaveOccurred())
		clock++
		return t
	}

	BeforeEach(func() {
		cfg = config.DefaultConfig().Tuning
		cfg.InitialParams = [3]float64{1, 0, 0}
		cfg.InitialDP = [3]float64{1, 1, 1}
		cfg.UpdateDistance = 15
		cfg.MaxCTE = 3
		start = time.Unix(1700000000, 0)
		clock = 0
		rec = &recorder{}
	})

	JustBeforeEach(func() {
		var err error
		s, err = session.New(cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		s.AddObserver(rec)
	})

	It("starts the controller on the initial vector", func() {
		snap := s.Snapshot()
		Expect(snap.Gains).To(Equal(control.Gains{Kp: 1}))
		Expect(snap.Params).To(Equal(optim.Params{1, 0, 0}))
		Expect(snap.HasBest()).To(BeFalse())
	})

	It("returns the negated controller output and the configured throttle", func() {
		t := step(0.5)
		Expect(t.Steer).To(Equal(-0.5))
		Expect(t.Throttle).To(Equal(config.DefaultThrottle))
		Expect(t.Window).To(BeNil())
	})

	It("accumulates distance only after the first sample", func() {
		step(0.1)
		Expect(s.Snapshot().Distance).To(Equal(0.0))
		step(0.1)
		Expect(s.Snapshot().Distance).To(Equal(10.0))
		Expect(s.Snapshot().WindowError).To(BeNumerically("~", 0.02, 1e-12))
	})

	Describe("a completed window", func() {
		var closing session.Tick

		JustBeforeEach(func() {
			step(0.5)
			step(0.5)
			closing = step(1.0)
		})

		It("reports an improvement over the initial best", func() {
			Expect(closing.Window).NotTo(BeNil())
			w := *closing.Window
			Expect(w.Seq).To(Equal(1))
			Expect(w.Outcome).To(Equal(session.Improved))
			Expect(w.Error).To(Equal(1.5))
			Expect(w.Best).To(Equal(1.5))
			Expect(w.PrevBest).To(Equal(math.MaxFloat64))
			Expect(w.Ticks).To(Equal(3))
			Expect(w.Distance).To(Equal(20.0))
			Expect(w.Params).To(Equal(optim.Params{1, 0, 0}))
			Expect(w.Trial).To(Equal("p[0]: +1"))
			Expect(w.Next).To(Equal(optim.Params{1, 1, 0}))
			Expect(w.NextGains).To(Equal(control.Gains{Kp: 1, Kd: 1}))
		})

		It("steers the closing sample with the new gains", func() {
			// p=1.0, i=2.0, d=0.5 under Kp=1 Kd=1
			Expect(closing.Steer).To(Equal(-1.5))
		})

		It("resets distance and window error but keeps the integral", func() {
			snap := s.Snapshot()
			Expect(snap.Distance).To(Equal(0.0))
			Expect(snap.WindowError).To(Equal(0.0))
			Expect(snap.Errors.I).To(Equal(2.0))
			Expect(snap.Windows).To(Equal(1))
		})

		It("notifies observers", func() {
			Expect(rec.ticks).To(HaveLen(3))
			Expect(rec.windows).To(HaveLen(1))
			Expect(rec.windows[0].Outcome).To(Equal(session.Improved))
		})

		Context("when the closing sample also exceeds the error bound", func() {
			JustBeforeEach(func() {
				step(0.5)
				closing = step(4.0)
			})

			It("scores the window as completed", func() {
				Expect(closing.Window).NotTo(BeNil())
				Expect(closing.Window.Distance).To(Equal(20.0))
				Expect(closing.Window.Outcome).To(Equal(session.NotImproved))
				Expect(closing.Window.Error).To(Equal(16.25))
				Expect(s.Snapshot().Phase).To(Equal(optim.TrySub))
			})
		})

		Context("followed by a worse window", func() {
			JustBeforeEach(func() {
				step(2.0)
				closing = step(2.0)
			})

			It("reports no improvement and tries the subtraction", func() {
				Expect(closing.Window).NotTo(BeNil())
				Expect(closing.Window.Outcome).To(Equal(session.NotImproved))
				Expect(closing.Window.Error).To(Equal(8.0))
				Expect(closing.Window.Best).To(Equal(1.5))

				snap := s.Snapshot()
				Expect(snap.Params).To(Equal(optim.Params{1, -1, 0}))
				Expect(snap.Phase).To(Equal(optim.TrySub))
				Expect(snap.Gains).To(Equal(control.Gains{Kp: 1, Kd: -1}))
			})

			It("aborts on the error bound before the distance is reached", func() {
				t := step(3.5)
				Expect(t.Window).NotTo(BeNil())
				Expect(t.Window.Outcome).To(Equal(session.Aborted))
				Expect(t.Window.Distance).To(Equal(10.0))
				Expect(t.Window.Best).To(Equal(1.5))

				snap := s.Snapshot()
				Expect(snap.Params).To(Equal(optim.Params{1, 0, 1}))
				Expect(snap.DP).To(Equal(optim.Params{1.1, 0.9, 1}))
				Expect(snap.Index).To(Equal(2))
				Expect(snap.Gains).To(Equal(control.Gains{Kp: 1, Ki: 1}))
			})
		})
	})

	It("never treats an aborted window as an improvement", func() {
		t := step(5)
		Expect(t.Window).NotTo(BeNil())
		Expect(t.Window.Outcome).To(Equal(session.Aborted))
		Expect(s.Snapshot().HasBest()).To(BeFalse())
		Expect(s.Snapshot().Phase).To(Equal(optim.TrySub))
	})

	It("rejects non-finite samples without changing state", func() {
		step(0.2)
		before := s.Snapshot()

		for _, smp := range []session.Sample{
			{CTE: math.NaN(), Speed: 10, At: start},
			{CTE: 0.1, Speed: math.Inf(1), At: start},
		} {
			_, err := s.Step(smp)
			Expect(err).To(MatchError(session.ErrNonFinite))
		}
		Expect(s.Snapshot()).To(Equal(before))
	})

	Context("with a window budget", func() {
		BeforeEach(func() {
			cfg.MaxWindows = 1
		})

		It("stops tuning once the budget is spent", func() {
			step(4)
			Expect(s.Done()).To(BeTrue())
			params := s.Snapshot().Params

			for i := 0; i < 10; i++ {
				Expect(step(4).Window).To(BeNil())
			}
			Expect(s.Snapshot().Params).To(Equal(params))
			Expect(s.Snapshot().Windows).To(Equal(1))
		})
	})

	Context("with integral reset enabled", func() {
		BeforeEach(func() {
			cfg.ResetIntegral = true
		})

		It("clears the controller at window boundaries", func() {
			step(0.5)
			step(0.5)
			t := step(1.0)
			Expect(t.Window).NotTo(BeNil())
			// the closing sample seeds a fresh controller
			Expect(s.Snapshot().Errors.I).To(Equal(1.0))
			Expect(t.Steer).To(Equal(-1.0))
		})
	})

	Context("with steering clamped", func() {
		BeforeEach(func() {
			cfg.ClampSteering = true
		})

		It("limits the command to [-1, 1]", func() {
			Expect(step(2.5).Steer).To(Equal(-1.0))
		})
	})

	It("rejects an invalid configuration", func() {
		bad := cfg
		bad.StartIndex = 5
		_, err := session.New(bad, nil)
		Expect(err).To(MatchError(config.ErrInvalid))
	})

	It("logs window results", func() {
		var buf bytes.Buffer
		logged, err := session.New(cfg, log.New(&buf))
		Expect(err).NotTo(HaveOccurred())

		at := start
		for _, cte := range []float64{0.5, 0.5, 1.0} {
			_, err := logged.Step(session.Sample{CTE: cte, Speed: 10, At: at})
			Expect(err).NotTo(HaveOccurred())
			at = at.Add(time.Second)
		}
		Expect(buf.String()).To(ContainSubstring("was best"))
		Expect(buf.String()).To(ContainSubstring("now try"))
	})
})

var _ = Describe("Outcome", func() {
	It("round-trips through text", func() {
		for _, o := range []session.Outcome{session.Improved, session.NotImproved, session.Aborted} {
			b, err := o.MarshalText()
			Expect(err).NotTo(HaveOccurred())
			var back session.Outcome
			Expect(back.UnmarshalText(b)).To(Succeed())
			Expect(back).To(Equal(o))
		}
		_, err := session.ParseOutcome("great")
		Expect(err).To(HaveOccurred())
	})
})

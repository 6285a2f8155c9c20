package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/optim"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/sim"
)

const sweepDuration = 120.0

var (
	kpRange    []float64
	kdRange    []float64
	kiRange    []float64
	sweepSteps int
	sweepRuns  int
	writeTo    string
)

func sweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search fixed gains on the built-in vehicle model",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	cmd.Flags().Float64SliceVar(&kpRange, "kp", []float64{0.1, 1.0}, "kp range (min,max)")
	cmd.Flags().Float64SliceVar(&kdRange, "kd", []float64{1, 15}, "kd range (min,max)")
	cmd.Flags().Float64SliceVar(&kiRange, "ki", []float64{0, 0.001}, "ki range (min,max)")
	cmd.Flags().IntVar(&sweepSteps, "steps", 5, "grid points per gain")
	cmd.Flags().IntVar(&sweepRuns, "runs", 1, "noise seeds averaged per candidate")
	cmd.Flags().StringVar(&writeTo, "write", "", "save a config file seeded with the best gains")
	simFlags(cmd)
	return cmd
}

func gridRange(name string, r []float64, steps int) ([]float64, error) {
	switch len(r) {
	case 1:
		return []float64{r[0]}, nil
	case 2:
		if steps < 1 {
			return nil, fmt.Errorf("--steps must be at least 1, got %d", steps)
		}
		return optim.Linspace(r[0], r[1], steps), nil
	default:
		return nil, fmt.Errorf("--%s expects min,max or a single value", name)
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// candidates are scored on shorter drives unless told otherwise
	if !cmd.Flags().Changed("time") && configFile == "" {
		cfg.Sim.Duration = sweepDuration
	}

	var ranges [optim.NumParams][]float64
	var err error
	if ranges[optim.IndexP], err = gridRange("kp", kpRange, sweepSteps); err != nil {
		return err
	}
	if ranges[optim.IndexD], err = gridRange("kd", kdRange, sweepSteps); err != nil {
		return err
	}
	if ranges[optim.IndexI], err = gridRange("ki", kiRange, sweepSteps); err != nil {
		return err
	}

	grid := optim.NewGridSearch(ranges)
	logger.Info("sweeping", "candidates", grid.Size(), "runs", sweepRuns, "duration", cfg.Sim.Duration)

	start := time.Now()
	evaluated := 0
	objective := func(ctx context.Context, p optim.Params) (float64, error) {
		evaluated++
		g := session.GainsFromParams(p)
		mse, err := sim.EvaluateEnsemble(ctx, cfg.Sim, cfg.Tuning, g, sweepRuns)
		if err != nil {
			logger.Debug("candidate rejected", "gains", g.String(), "err", err)
			return 0, err
		}
		logger.Debug("candidate", "n", evaluated, "gains", g.String(), "mse", mse)
		return mse, nil
	}

	best, score, err := grid.Search(ctx, objective)
	if err != nil {
		return err
	}

	gains := session.GainsFromParams(best)
	fmt.Printf("evaluated %d candidates in %v\n", evaluated, time.Since(start))
	fmt.Printf("best mse: %.6g\n", score)
	fmt.Printf("params: %s\n", best)
	fmt.Printf("gains: %s\n", gains)

	if writeTo != "" {
		out := *cfg
		out.Tuning.InitialParams = best
		if err := saveConfig(writeTo, &out); err != nil {
			return err
		}
		fmt.Printf("config written to %s\n", writeTo)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/config"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/export"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/sim"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/storage"
)

var (
	dt         float64
	duration   float64
	speed      float64
	noise      float64
	seed       int64
	integrator string
	initialCTE float64
	svgOut     string
)

func simFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	cmd.Flags().Float64Var(&speed, "speed", config.DefaultSpeed, "vehicle speed")
	cmd.Flags().Float64Var(&noise, "noise", 0, "std dev of cross-track sensor noise")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4)")
	cmd.Flags().Float64Var(&initialCTE, "initial-cte", 1.0, "starting offset from the path")
}

func applySimFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Sim.Duration = duration
	}
	if flags.Changed("speed") {
		cfg.Sim.Speed = speed
	}
	if flags.Changed("noise") {
		cfg.Sim.Noise = noise
	}
	if flags.Changed("seed") {
		cfg.Sim.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Sim.Integrator = integrator
	}
	if flags.Changed("initial-cte") {
		cfg.Sim.InitialCTE = initialCTE
	}
}

func simulateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "tune against the built-in vehicle model",
		Args:  cobra.NoArgs,
		RunE:  runSimulate,
	}
	simFlags(cmd)
	tuningFlags(cmd)
	dashboardFlags(cmd)
	cmd.Flags().StringVar(&svgOut, "svg", "", "write the cte and steering trace to an svg file")
	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l := logger
	if useTUI {
		fileLogger, closeLog, err := dashboardLogger()
		if err != nil {
			return err
		}
		defer closeLog()
		l = fileLogger
	}

	sess, err := session.New(cfg.Tuning, l)
	if err != nil {
		return err
	}
	runner, err := sim.New(cfg.Sim, sess)
	if err != nil {
		return err
	}

	var rec *storage.Recorder
	if !noRecord {
		rec, err = storage.New(dataDir).NewRecorder("sim", cfg)
		if err != nil {
			return err
		}
		sess.AddObserver(rec)
	}

	start := time.Now()
	var result *sim.Result
	drive := func(ctx context.Context) error {
		var err error
		result, err = runner.Run(ctx)
		return err
	}
	if useTUI {
		err = runWithDashboard(ctx, sess, "pidtune simulate", drive)
	} else {
		err = drive(ctx)
	}
	elapsed := time.Since(start)

	if rec != nil && result != nil {
		if cerr := rec.Close(result.Final, result.Metrics); cerr != nil {
			return cerr
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if result == nil {
		return nil
	}

	printResult(result, elapsed)
	if rec != nil {
		fmt.Printf("run id: %s\n", rec.ID())
	}
	if svgOut != "" {
		svg := export.TraceToSVG(result.Times, []export.Series{
			{Name: "cte", Values: result.CTE, Color: "#00ffff"},
			{Name: "steer", Values: result.Steer, Color: "#ff00ff"},
		}, 1200, 400)
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("trace written to %s\n", svgOut)
	}
	return nil
}

func printResult(result *sim.Result, elapsed time.Duration) {
	final := result.Final

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", result.Steps)
	fmt.Printf("windows: %d (resets: %d)\n", len(result.Windows), result.Resets)
	if final.HasBest() {
		fmt.Printf("best error: %.6g\n", final.Best)
	} else {
		fmt.Println("best error: none")
	}
	fmt.Printf("params: %s\n", final.Params)
	fmt.Printf("dp: %s\n", final.DP)
	fmt.Printf("gains: %s\n", final.Gains)
	if result.Weave.Period > 0 {
		fmt.Printf("weave: period %.2fs, amplitude %.3f\n", result.Weave.Period, result.Weave.Amplitude)
	}

	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
}

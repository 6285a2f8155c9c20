package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/bridge"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/storage"
)

var (
	addr string
	path string
)

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "tune against the driving simulator over a websocket",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&addr, "addr", ":4567", "listen address")
	cmd.Flags().StringVar(&path, "path", "/", "websocket path")
	tuningFlags(cmd)
	dashboardFlags(cmd)
	return cmd
}

func applyServerFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = addr
	}
	if cmd.Flags().Changed("path") {
		cfg.Server.Path = path
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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

	var rec *storage.Recorder
	if !noRecord {
		rec, err = storage.New(dataDir).NewRecorder("bridge", cfg)
		if err != nil {
			return err
		}
		sess.AddObserver(rec)
		l.Info("recording", "run", rec.ID())
	}

	srv := bridge.New(cfg.Server, sess, l)
	if useTUI {
		err = runWithDashboard(ctx, sess, "pidtune serve "+cfg.Server.Addr, srv.Run)
	} else {
		err = srv.Run(ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	}

	if rec != nil {
		if cerr := rec.Close(srv.Snapshot(), nil); cerr != nil {
			l.Error("saving run", "run", rec.ID(), "err", cerr)
		}
	}

	snap := srv.Snapshot()
	l.Info("stopped", "windows", snap.Windows, "params", snap.Params.String(), "gains", snap.Gains.String())
	return err
}

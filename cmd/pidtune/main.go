package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"charm.land/log/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/config"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/viz"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	logFormat  string
	preset     string
	// tuning
	maxWindows    int
	updateDist    float64
	maxCTE        float64
	throttle      float64
	resetIntegral bool
	clampSteering bool
	// dashboard
	useTUI   bool
	theme    string
	noRecord bool

	cfg    *config.Config
	logger *log.Logger
)

// main registers the pidtune commands and exits with status 1 when the
// selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:               "pidtune",
		Short:             "steering PID controller with online twiddle tuning",
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pidtune", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json, logfmt)")

	rootCmd.AddCommand(
		serveCommand(),
		simulateCommand(),
		sweepCommand(),
		runsCommand(),
		plotCommand(),
		exportCommand(),
		presetsCommand(),
		configCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// tuningFlags registers the flags shared by every command that runs a
// tuning session.
func tuningFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use preset tuning configuration")
	cmd.Flags().IntVar(&maxWindows, "max-windows", 0, "stop tuning after this many windows (0 = unlimited)")
	cmd.Flags().Float64Var(&updateDist, "update-distance", config.DefaultUpdateDistance, "distance driven per evaluation window")
	cmd.Flags().Float64Var(&maxCTE, "max-cte", config.DefaultMaxCTE, "abort a window above this cross-track error")
	cmd.Flags().Float64Var(&throttle, "throttle", config.DefaultThrottle, "constant throttle")
	cmd.Flags().BoolVar(&resetIntegral, "reset-integral", false, "clear the integral term when gains change")
	cmd.Flags().BoolVar(&clampSteering, "clamp-steering", false, "clamp steering to [-1, 1]")
}

func dashboardFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show the live dashboard")
	cmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "dashboard theme")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "do not store the run")
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then the preset, then any flag set on the command line.
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg.Apply(p)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") || cfg.Log.Level == "" {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") || cfg.Log.Format == "" {
		cfg.Log.Format = logFormat
	}
	if flags.Changed("max-windows") {
		cfg.Tuning.MaxWindows = maxWindows
	}
	if flags.Changed("update-distance") {
		cfg.Tuning.UpdateDistance = updateDist
	}
	if flags.Changed("max-cte") {
		cfg.Tuning.MaxCTE = maxCTE
	}
	if flags.Changed("throttle") {
		cfg.Tuning.Throttle = throttle
	}
	if flags.Changed("reset-integral") {
		cfg.Tuning.ResetIntegral = resetIntegral
	}
	if flags.Changed("clamp-steering") {
		cfg.Tuning.ClampSteering = clampSteering
	}
	applySimFlags(cmd)
	applyServerFlags(cmd)

	if err := cfg.Validate(); err != nil {
		return err
	}

	var err error
	logger, err = newLogger(os.Stderr, cfg.Log)
	return err
}

func newLogger(w io.Writer, c config.Log) (*log.Logger, error) {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log.level = %s", config.ErrInvalid, c.Level)
	}

	formatter := log.TextFormatter
	switch c.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		Prefix:          "pidtune",
	}), nil
}

// dashboardLogger sends log output to a file under the data directory while
// the dashboard owns the terminal.
func dashboardLogger() (*log.Logger, func(), error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "pidtune.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	l, err := newLogger(f, cfg.Log)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return l, func() { f.Close() }, nil
}

// runWithDashboard runs drive in the background while the dashboard shows
// the session. Quitting the dashboard cancels drive.
func runWithDashboard(ctx context.Context, sess *session.Session, title string, drive func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := viz.NewFeed(sess, 256)
	model := viz.NewModel(title, feed, cfg.Tuning, viz.GetTheme(theme))
	p := tea.NewProgram(model, tea.WithAltScreen())

	errCh := make(chan error, 1)
	go func() {
		err := drive(ctx)
		feed.Close(err)
		errCh <- err
	}()

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, perr := p.Run()
	feed.Stop()
	cancel()
	err := <-errCh

	if perr != nil {
		return perr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/config"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/export"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/storage"
)

var (
	plotSVG     string
	exportOut   string
	writeConfig string
)

func runsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "list stored tuning runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
}

func plotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot window errors of a run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	cmd.Flags().StringVar(&plotSVG, "svg", "", "also write the window errors to an svg file")
	return cmd
}

func exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run with its windows as JSON (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportRun,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	return cmd
}

func presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list tuning presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPARAMS (P, D, I)\tDP\tDISTANCE\tMAX CTE")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%v\t%v\t%.0f\t%.2f\n", name, p.InitialParams, p.InitialDP, p.UpdateDistance, p.MaxCTE)
			}
			return w.Flush()
		},
	}
}

func configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if writeConfig != "" {
				if err := saveConfig(writeConfig, cfg); err != nil {
					return err
				}
				fmt.Printf("config written to %s\n", writeConfig)
				return nil
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
	cmd.Flags().StringVar(&writeConfig, "write", "", "write the configuration to a file instead")
	tuningFlags(cmd)
	simFlags(cmd)
	return cmd
}

func saveConfig(path string, c *config.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return config.Save(path, c)
}

// resolveRun returns the metadata of the named run, or of the latest one
// when no name is given.
func resolveRun(st *storage.Store, args []string) (*storage.RunMetadata, error) {
	if len(args) == 0 {
		return st.Latest()
	}
	return st.Load(args[0])
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tSTARTED\tWINDOWS\tBEST\tGAINS")

	for _, run := range runs {
		best := "-"
		if run.Best != nil {
			best = fmt.Sprintf("%.6g", *run.Best)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			run.ID,
			run.Source,
			run.Started.Local().Format("2006-01-02 15:04:05"),
			run.Windows,
			best,
			run.FinalGains,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := resolveRun(st, args)
	if err != nil {
		return err
	}

	windows, err := st.LoadWindows(meta.ID)
	if err != nil {
		return err
	}
	if len(windows) == 0 {
		return fmt.Errorf("no windows to plot")
	}

	errs := make([]float64, 0, len(windows))
	bests := make([]float64, 0, len(windows))
	counts := map[session.Outcome]int{}
	for _, w := range windows {
		counts[w.Outcome]++
		errs = append(errs, w.Error)
		if w.Outcome == session.Improved || len(bests) == 0 {
			bests = append(bests, w.Error)
		} else {
			bests = append(bests, bests[len(bests)-1])
		}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("windows: %d (improved %d, not improved %d, aborted %d)\n\n",
		len(windows), counts[session.Improved], counts[session.NotImproved], counts[session.Aborted])

	graph := asciigraph.PlotMany([][]float64{errs, bests},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("window error / best so far"),
	)
	fmt.Println(graph)
	fmt.Println()

	for i, name := range []string{"kp", "kd", "ki"} {
		series := make([]float64, len(windows))
		for j, w := range windows {
			series[j] = w.Params[i]
		}
		fmt.Println(asciigraph.Plot(series,
			asciigraph.Height(6),
			asciigraph.Width(80),
			asciigraph.Caption(name+" tried"),
		))
		fmt.Println()
	}

	if plotSVG != "" {
		svg := export.TraceToSVG(nil, []export.Series{
			{Name: "window error", Values: errs, Color: "#ffaa00"},
			{Name: "best", Values: bests, Color: "#00ff88"},
		}, 1200, 400)
		if err := os.WriteFile(plotSVG, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("chart written to %s\n", plotSVG)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := resolveRun(st, args)
	if err != nil {
		return err
	}

	out := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return st.ExportJSON(meta.ID, out)
}

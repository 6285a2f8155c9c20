package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/optim"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
)

var windowHeader = []string{
	"seq", "outcome", "trial", "trial_state",
	"error", "prev_best", "best", "distance", "ticks",
	"p0", "p1", "p2",
	"dp0", "dp1", "dp2",
	"next0", "next1", "next2",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func windowRow(w session.Window) []string {
	row := []string{
		strconv.Itoa(w.Seq),
		w.Outcome.String(),
		w.Trial,
		w.TrialState,
		formatFloat(w.Error),
		formatFloat(w.PrevBest),
		formatFloat(w.Best),
		formatFloat(w.Distance),
		strconv.Itoa(w.Ticks),
	}
	for _, p := range []optim.Params{w.Params, w.DP, w.Next} {
		for _, v := range p {
			row = append(row, formatFloat(v))
		}
	}
	return row
}

func parseWindow(row []string) (session.Window, error) {
	var w session.Window
	if len(row) != len(windowHeader) {
		return w, fmt.Errorf("expected %d fields, got %d", len(windowHeader), len(row))
	}

	var err error
	if w.Seq, err = strconv.Atoi(row[0]); err != nil {
		return w, err
	}
	if w.Outcome, err = session.ParseOutcome(row[1]); err != nil {
		return w, err
	}
	w.Trial = row[2]
	w.TrialState = row[3]

	floats := []*float64{&w.Error, &w.PrevBest, &w.Best, &w.Distance}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(row[4+i], 64); err != nil {
			return w, err
		}
	}
	if w.Ticks, err = strconv.Atoi(row[8]); err != nil {
		return w, err
	}

	col := 9
	for _, p := range []*optim.Params{&w.Params, &w.DP, &w.Next} {
		for i := range p {
			if p[i], err = strconv.ParseFloat(row[col], 64); err != nil {
				return w, err
			}
			col++
		}
	}
	w.NextGains = session.GainsFromParams(w.Next)
	return w, nil
}

// WindowWriter appends window rows to a CSV stream.
type WindowWriter struct {
	w      *csv.Writer
	header bool
}

func NewWindowWriter(w io.Writer) *WindowWriter {
	return &WindowWriter{w: csv.NewWriter(w)}
}

func (ww *WindowWriter) Write(w session.Window) error {
	if !ww.header {
		if err := ww.w.Write(windowHeader); err != nil {
			return err
		}
		ww.header = true
	}
	if err := ww.w.Write(windowRow(w)); err != nil {
		return err
	}
	ww.w.Flush()
	return ww.w.Error()
}

func ReadWindows(r io.Reader) ([]session.Window, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []session.Window{}, nil
	}

	windows := make([]session.Window, 0, len(records)-1)
	for i, record := range records[1:] {
		w, err := parseWindow(record)
		if err != nil {
			return nil, fmt.Errorf("storage: windows row %d: %w", i+1, err)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// LoadWindows reads the window log of a run. A run that never closed a
// window has none.
func (s *Store) LoadWindows(runID string) ([]session.Window, error) {
	f, err := os.Open(filepath.Join(s.runDir(runID), windowsFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if _, statErr := os.Stat(s.runDir(runID)); statErr != nil {
				return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
			}
			return []session.Window{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return ReadWindows(f)
}

// Package storage persists tuning runs on disk.
//
// Each run lives in its own directory named by a random run ID:
//
//	<base>/<id>/metadata.json  configuration, timestamps and final result
//	<base>/<id>/windows.csv    one row per closed evaluation window
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/config"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/control"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/optim"
)

const (
	metadataFile = "metadata.json"
	windowsFile  = "windows.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// RunMetadata describes one tuning run. Best is nil until some window
// improved on the initial parameters.
type RunMetadata struct {
	ID          string             `json:"id"`
	Source      string             `json:"source"`
	Started     time.Time          `json:"started"`
	Finished    time.Time          `json:"finished,omitempty"`
	Config      *config.Config     `json:"config"`
	Windows     int                `json:"windows"`
	Ticks       int                `json:"ticks"`
	Best        *float64           `json:"best,omitempty"`
	FinalParams optim.Params       `json:"final_params"`
	FinalDP     optim.Params       `json:"final_dp"`
	FinalGains  control.Gains      `json:"final_gains"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// Create allocates a new run directory and returns its ID.
func (s *Store) Create() (string, error) {
	id := uuid.NewString()
	if err := os.MkdirAll(s.runDir(id), 0755); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) SaveMetadata(meta *RunMetadata) error {
	if meta.ID == "" {
		return fmt.Errorf("storage: metadata without run id")
	}
	f, err := os.Create(filepath.Join(s.runDir(meta.ID), metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// List returns every readable run, oldest first. A missing base directory
// is an empty store.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Started.Equal(runs[j].Started) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Started.Before(runs[j].Started)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// Latest returns the most recently started run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrRunNotFound
	}
	return &runs[len(runs)-1], nil
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

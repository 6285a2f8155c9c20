package storage

import (
	"encoding/json"
	"io"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
)

type ExportData struct {
	Run     RunMetadata      `json:"run"`
	Windows []session.Window `json:"windows"`
}

// ExportJSON writes a run's metadata and full window log as one document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	windows, err := s.LoadWindows(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: *meta, Windows: windows})
}

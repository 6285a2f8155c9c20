package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/config"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
)

// Recorder is a session observer that streams closed windows to a new run
// directory. Metadata is written when the recorder is created and again on
// Close. Write errors are sticky and reported by Close.
type Recorder struct {
	store *Store

	mu   sync.Mutex
	meta RunMetadata
	file *os.File
	ww   *WindowWriter
	err  error
}

func (s *Store) NewRecorder(source string, cfg *config.Config) (*Recorder, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	id, err := s.Create()
	if err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(s.runDir(id), windowsFile))
	if err != nil {
		os.RemoveAll(s.runDir(id))
		return nil, err
	}

	r := &Recorder{
		store: s,
		meta: RunMetadata{
			ID:      id,
			Source:  source,
			Started: time.Now().UTC(),
			Config:  cfg,
		},
		file: f,
		ww:   NewWindowWriter(f),
	}
	if cfg != nil {
		r.meta.FinalParams = cfg.Tuning.InitialParams
		r.meta.FinalDP = cfg.Tuning.InitialDP
		r.meta.FinalGains = session.GainsFromParams(cfg.Tuning.InitialParams)
	}
	if err := s.SaveMetadata(&r.meta); err != nil {
		f.Close()
		os.RemoveAll(s.runDir(id))
		return nil, err
	}
	return r, nil
}

func (r *Recorder) ID() string { return r.meta.ID }

func (r *Recorder) OnTick(session.Sample, session.Tick) {
	r.mu.Lock()
	r.meta.Ticks++
	r.mu.Unlock()
}

func (r *Recorder) OnWindow(w session.Window) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.meta.Windows++
	r.meta.FinalParams = w.Next
	r.meta.FinalGains = w.NextGains
	if w.Outcome == session.Improved {
		best := w.Best
		r.meta.Best = &best
	}
	if r.err == nil && r.ww != nil {
		r.err = r.ww.Write(w)
	}
}

// Close records the final session state and run metrics and closes the
// window log.
func (r *Recorder) Close(final session.Snapshot, metrics map[string]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return r.err
	}

	r.meta.Finished = time.Now().UTC()
	r.meta.Windows = final.Windows
	r.meta.Ticks = final.Ticks
	r.meta.FinalParams = final.Params
	r.meta.FinalDP = final.DP
	r.meta.FinalGains = final.Gains
	if final.HasBest() {
		best := final.Best
		r.meta.Best = &best
	}
	if len(metrics) > 0 {
		r.meta.Metrics = metrics
	}

	err := errors.Join(r.err, r.file.Close(), r.store.SaveMetadata(&r.meta))
	r.file = nil
	r.ww = nil
	r.err = err
	return err
}

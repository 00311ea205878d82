package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"climatefarm/models"
)

var (
	// ErrNoModel means no artifact exists at the store path.
	ErrNoModel = errors.New("no trained model")
	// ErrFeatureMismatch means an artifact or input disagrees with the feature contract.
	ErrFeatureMismatch = errors.New("model feature contract mismatch")
)

// Artifact is the persisted trained model.
type Artifact struct {
	ID        string    `json:"id"`
	Features  []string  `json:"features"`
	TrainedAt time.Time `json:"trained_at"`
	Source    string    `json:"source,omitempty"`
	Strategy  string    `json:"strategy"`
	Rows      int       `json:"rows"`
	RMSE      float64   `json:"rmse"`
	Forest    *Forest   `json:"forest"`
}

// Validate checks the artifact against the canonical feature order.
func (a *Artifact) Validate() error {
	if len(a.Features) != len(models.FeatureNames) {
		return fmt.Errorf("%w: artifact has %d features", ErrFeatureMismatch, len(a.Features))
	}
	for i, name := range models.FeatureNames {
		if a.Features[i] != name {
			return fmt.Errorf("%w: feature %d is %q, want %q", ErrFeatureMismatch, i, a.Features[i], name)
		}
	}
	if a.Forest == nil {
		return errors.New("artifact has no forest")
	}
	if a.Forest.NFeatures != len(models.FeatureNames) {
		return fmt.Errorf("%w: forest expects %d features", ErrFeatureMismatch, a.Forest.NFeatures)
	}
	return a.Forest.Validate()
}

// Predict runs the forest on a reading.
func (a *Artifact) Predict(r models.Reading) (float64, error) {
	return a.Forest.Predict(r.Vector())
}

// ModelStore holds the current artifact at a single well-known path.
//
// Writes go to a temporary file in the same directory which is then renamed
// over the path, so a reader sees either the old or the new artifact. Loaded
// artifacts are cached and reloaded only when the file's size or modification
// time changes.
type ModelStore struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	cached  *Artifact
	modTime time.Time
	size    int64
}

// NewModelStore creates a store for the artifact at path.
func NewModelStore(path string, logger *slog.Logger) *ModelStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelStore{path: path, logger: logger}
}

// Path returns the artifact location.
func (s *ModelStore) Path() string {
	return s.path
}

// Exists reports whether an artifact file is present.
func (s *ModelStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load returns the current artifact, or ErrNoModel if there is none.
func (s *ModelStore) Load() (*Artifact, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.invalidate()
		return nil, ErrNoModel
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat model file: %w", err)
	}

	s.mu.RLock()
	if s.cached != nil && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		a := s.cached
		s.mu.RUnlock()
		return a, nil
	}
	s.mu.RUnlock()

	artifact, err := decodeArtifact(f)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cached, s.modTime, s.size = artifact, info.ModTime(), info.Size()
	s.mu.Unlock()

	s.logger.Info("loaded model", "path", s.path, "model_id", artifact.ID, "trees", len(artifact.Forest.Trees))
	return artifact, nil
}

// Save validates and atomically replaces the artifact.
func (s *ModelStore) Save(a *Artifact) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("refusing to save model: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if err := json.NewEncoder(tmp).Encode(a); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close model: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to chmod model: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace model: %w", err)
	}
	committed = true

	info, err := os.Stat(s.path)
	if err != nil {
		s.invalidate()
		return nil
	}
	s.mu.Lock()
	s.cached, s.modTime, s.size = a, info.ModTime(), info.Size()
	s.mu.Unlock()

	s.logger.Info("saved model", "path", s.path, "model_id", a.ID)
	return nil
}

func (s *ModelStore) invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func decodeArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	return &a, nil
}

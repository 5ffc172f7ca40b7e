// Package storage persists search outcomes: fitted models as one gob blob
// per family in a fixed directory, and per-trial history records in a
// BoltDB database for later inspection.
package storage

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hypertune/internal/model"
)

func init() {
	// Concrete families crossing the Regressor interface boundary in gob.
	gob.Register(&model.KernelRidge{})
	gob.Register(&model.Forest{})
	gob.Register(&model.Boosting{})
}

// SavedModel is the on-disk envelope for a fitted model.
type SavedModel struct {
	Family    string
	Params    model.Configuration
	BestLoss  float64
	TrainedAt time.Time
	Model     model.Regressor
}

// ModelStore writes one blob per model family into a directory, named
// <family>.gob.
type ModelStore struct {
	dir string
}

// NewModelStore creates the directory if needed.
func NewModelStore(dir string) (*ModelStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model directory %s: %w", dir, err)
	}
	return &ModelStore{dir: dir}, nil
}

// Path returns the blob path for a family.
func (s *ModelStore) Path(family string) string {
	return filepath.Join(s.dir, family+".gob")
}

// Save serializes a fitted model keyed by family name, overwriting any
// previous blob for that family.
func (s *ModelStore) Save(family string, m model.Regressor, params model.Configuration, bestLoss float64) error {
	f, err := os.Create(s.Path(family))
	if err != nil {
		return fmt.Errorf("create model blob: %w", err)
	}
	defer f.Close()

	saved := SavedModel{
		Family:    family,
		Params:    params,
		BestLoss:  bestLoss,
		TrainedAt: time.Now().UTC(),
		Model:     m,
	}
	if err := gob.NewEncoder(f).Encode(&saved); err != nil {
		return fmt.Errorf("encode model %s: %w", family, err)
	}
	return nil
}

// Load reads a family's blob back.
func (s *ModelStore) Load(family string) (*SavedModel, error) {
	f, err := os.Open(s.Path(family))
	if err != nil {
		return nil, fmt.Errorf("open model blob: %w", err)
	}
	defer f.Close()

	var saved SavedModel
	if err := gob.NewDecoder(f).Decode(&saved); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", family, err)
	}
	return &saved, nil
}

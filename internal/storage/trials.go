package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"hypertune/internal/search"
)

const trialsBucket = "trials"

// TrialStore keeps the per-trial history of every search run in a BoltDB
// file. Records are keyed "<family>_<number>" so a cursor scan over the
// family prefix returns trials in evaluation order.
type TrialStore struct {
	db *bbolt.DB
}

// NewTrialStore opens (or creates) the database and its bucket.
func NewTrialStore(path string) (*TrialStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open trial database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(trialsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create trials bucket: %w", err)
	}
	return &TrialStore{db: db}, nil
}

// Close releases the database.
func (s *TrialStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores all trials of one family's search.
func (s *TrialStore) Record(family string, trials []search.Trial) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(trialsBucket))
		for _, trial := range trials {
			data, err := json.Marshal(trial)
			if err != nil {
				return fmt.Errorf("marshal trial %d: %w", trial.Number, err)
			}
			key := fmt.Sprintf("%s_%06d", family, trial.Number)
			if err := b.Put([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns a family's recorded trials in evaluation order.
func (s *TrialStore) List(family string) ([]search.Trial, error) {
	var trials []search.Trial
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(trialsBucket)).Cursor()
		prefix := []byte(family + "_")
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var trial search.Trial
			if err := json.Unmarshal(v, &trial); err != nil {
				return fmt.Errorf("unmarshal trial %s: %w", k, err)
			}
			trials = append(trials, trial)
		}
		return nil
	})
	return trials, err
}

package bolt

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pulsedesk/pulsedesk/internal/storage"
	"go.etcd.io/bbolt"
)

const (
	bucketUsage      = "usage_records"
	bucketMarkers    = "markers"
	bucketFitness    = "fitness"
	bucketActivities = "activity_log"

	keyUsageMap     = "mapping"
	keyRolloverDate = "last_rollover_date"
	keySnapshot     = "snapshot"
)

// Store implements the storage.Store interface using bbolt.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store.
func Open(path string) (*Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return storage.EnsureDir(dir)
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{
			[]byte(bucketUsage),
			[]byte(bucketMarkers),
			[]byte(bucketFitness),
			[]byte(bucketActivities),
		}

		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}

		return nil
	})
}

// Close closes the underlying store database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Usage returns the usage store.
func (s *Store) Usage() storage.UsageStore { return &usageStore{db: s.db} }

// Fitness returns the fitness snapshot store.
func (s *Store) Fitness() storage.FitnessStore { return &fitnessStore{db: s.db} }

// Activities returns the manual activity log store.
func (s *Store) Activities() storage.ActivityStore { return &activityStore{db: s.db} }

func marshal(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return data, nil
}

package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pulsedesk/pulsedesk/internal/storage"
	"go.etcd.io/bbolt"
)

type fitnessStore struct {
	db *bbolt.DB
}

// Get returns the last persisted snapshot. Absent or malformed data
// yields zeroed defaults so sensor reads always succeed.
func (s *fitnessStore) Get(ctx context.Context) (storage.FitnessSnapshot, error) {
	var snapshot storage.FitnessSnapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketFitness))
		if b == nil {
			return nil
		}
		value := b.Get([]byte(keySnapshot))
		if value == nil {
			return nil
		}
		if err := json.Unmarshal(value, &snapshot); err != nil {
			snapshot = storage.FitnessSnapshot{}
		}
		return nil
	})
	if err != nil {
		return storage.FitnessSnapshot{}, err
	}
	return snapshot, nil
}

// Put replaces the persisted snapshot.
func (s *fitnessStore) Put(ctx context.Context, snapshot storage.FitnessSnapshot) error {
	data, err := marshal(snapshot)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketFitness))
		if b == nil {
			return fmt.Errorf("bucket missing: %s", bucketFitness)
		}
		return b.Put([]byte(keySnapshot), data)
	})
}

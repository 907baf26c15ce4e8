package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pulsedesk/pulsedesk/internal/storage"
	"go.etcd.io/bbolt"
)

type usageStore struct {
	db *bbolt.DB
}

// GetAll loads the whole usage mapping. Absent or malformed data yields
// an empty mapping: persisted usage is advisory, never a reason to fail.
func (s *usageStore) GetAll(ctx context.Context) (map[string]storage.UsageRecord, error) {
	records := make(map[string]storage.UsageRecord)
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketUsage))
		if b == nil {
			return nil
		}
		value := b.Get([]byte(keyUsageMap))
		if value == nil {
			return nil
		}
		if err := json.Unmarshal(value, &records); err != nil {
			// Corrupt mapping is treated as absent.
			records = make(map[string]storage.UsageRecord)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// PutAll replaces the whole usage mapping in one write.
func (s *usageStore) PutAll(ctx context.Context, records map[string]storage.UsageRecord) error {
	data, err := marshal(records)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketUsage))
		if b == nil {
			return fmt.Errorf("bucket missing: %s", bucketUsage)
		}
		return b.Put([]byte(keyUsageMap), data)
	})
}

// Clear removes the usage mapping entirely.
func (s *usageStore) Clear(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketUsage))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(keyUsageMap))
	})
}

// GetRolloverDate returns the persisted last-rollover date string, or
// storage.ErrNotFound before the first rollover.
func (s *usageStore) GetRolloverDate(ctx context.Context) (string, error) {
	var date string
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketMarkers))
		if b == nil {
			return storage.ErrNotFound
		}
		value := b.Get([]byte(keyRolloverDate))
		if value == nil {
			return storage.ErrNotFound
		}
		date = string(value)
		return nil
	})
	if err != nil {
		return "", err
	}
	return date, nil
}

// SetRolloverDate persists the last-rollover date string.
func (s *usageStore) SetRolloverDate(ctx context.Context, date string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketMarkers))
		if b == nil {
			return fmt.Errorf("bucket missing: %s", bucketMarkers)
		}
		return b.Put([]byte(keyRolloverDate), []byte(date))
	})
}

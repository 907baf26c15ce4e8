package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pulsedesk/pulsedesk/internal/storage"
	"go.etcd.io/bbolt"
)

type activityStore struct {
	db *bbolt.DB
}

// Append adds one entry to the activity log. Entries are keyed by
// timestamp so iteration order matches insertion order.
func (s *activityStore) Append(ctx context.Context, entry storage.ActivityEntry) error {
	data, err := marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketActivities))
		if b == nil {
			return fmt.Errorf("bucket missing: %s", bucketActivities)
		}
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		key := fmt.Sprintf("%020d-%012d", entry.Timestamp.UnixNano(), seq)
		return b.Put([]byte(key), data)
	})
}

// List returns all logged entries in insertion order, skipping any
// that no longer parse.
func (s *activityStore) List(ctx context.Context) ([]storage.ActivityEntry, error) {
	entries := make([]storage.ActivityEntry, 0)
	return entries, s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketActivities))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var entry storage.ActivityEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return nil
			}
			entries = append(entries, entry)
			return nil
		})
	})
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pulsedesk/pulsedesk/internal/storage"
	"github.com/redis/go-redis/v9"
)

type activityStore struct {
	client *redis.Client
}

// Append pushes one entry onto the activity log list.
func (s *activityStore) Append(ctx context.Context, entry storage.ActivityEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal activity entry: %w", err)
	}
	if err := s.client.RPush(ctx, keyActivities, data).Err(); err != nil {
		return fmt.Errorf("append activity entry: %w", err)
	}
	return nil
}

// List returns the logged entries in insertion order, skipping any
// that no longer parse.
func (s *activityStore) List(ctx context.Context) ([]storage.ActivityEntry, error) {
	values, err := s.client.LRange(ctx, keyActivities, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list activity entries: %w", err)
	}

	entries := make([]storage.ActivityEntry, 0, len(values))
	for _, value := range values {
		var entry storage.ActivityEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pulsedesk/pulsedesk/internal/storage"
	"github.com/redis/go-redis/v9"
)

type fitnessStore struct {
	client *redis.Client
}

// Get returns the last persisted snapshot, zeroed when absent or
// malformed.
func (s *fitnessStore) Get(ctx context.Context) (storage.FitnessSnapshot, error) {
	var snapshot storage.FitnessSnapshot

	value, err := s.client.Get(ctx, keySnapshot).Result()
	if errors.Is(err, redis.Nil) {
		return snapshot, nil
	}
	if err != nil {
		return snapshot, fmt.Errorf("get fitness snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(value), &snapshot); err != nil {
		return storage.FitnessSnapshot{}, nil
	}
	return snapshot, nil
}

// Put replaces the persisted snapshot.
func (s *fitnessStore) Put(ctx context.Context, snapshot storage.FitnessSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal fitness snapshot: %w", err)
	}
	if err := s.client.Set(ctx, keySnapshot, data, 0).Err(); err != nil {
		return fmt.Errorf("put fitness snapshot: %w", err)
	}
	return nil
}

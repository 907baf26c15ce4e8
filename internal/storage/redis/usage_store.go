package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pulsedesk/pulsedesk/internal/storage"
	"github.com/redis/go-redis/v9"
)

type usageStore struct {
	client *redis.Client
}

// GetAll loads the whole usage mapping. Missing or malformed values
// come back as an empty mapping.
func (s *usageStore) GetAll(ctx context.Context) (map[string]storage.UsageRecord, error) {
	records := make(map[string]storage.UsageRecord)

	value, err := s.client.Get(ctx, keyUsageMap).Result()
	if errors.Is(err, redis.Nil) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get usage mapping: %w", err)
	}

	if err := json.Unmarshal([]byte(value), &records); err != nil {
		return make(map[string]storage.UsageRecord), nil
	}
	return records, nil
}

// PutAll replaces the whole usage mapping in one write.
func (s *usageStore) PutAll(ctx context.Context, records map[string]storage.UsageRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal usage mapping: %w", err)
	}
	if err := s.client.Set(ctx, keyUsageMap, data, 0).Err(); err != nil {
		return fmt.Errorf("put usage mapping: %w", err)
	}
	return nil
}

// Clear removes the usage mapping entirely.
func (s *usageStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, keyUsageMap).Err(); err != nil {
		return fmt.Errorf("clear usage mapping: %w", err)
	}
	return nil
}

// GetRolloverDate returns the persisted last-rollover date string.
func (s *usageStore) GetRolloverDate(ctx context.Context) (string, error) {
	value, err := s.client.Get(ctx, keyRolloverDate).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get rollover date: %w", err)
	}
	return value, nil
}

// SetRolloverDate persists the last-rollover date string.
func (s *usageStore) SetRolloverDate(ctx context.Context, date string) error {
	if err := s.client.Set(ctx, keyRolloverDate, date, 0).Err(); err != nil {
		return fmt.Errorf("set rollover date: %w", err)
	}
	return nil
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/pulsedesk/pulsedesk/internal/config"
	"github.com/pulsedesk/pulsedesk/internal/storage"
	"github.com/redis/go-redis/v9"
)

const (
	keyUsageMap     = "pulsedesk:usage"
	keyRolloverDate = "pulsedesk:rollover_date"
	keySnapshot     = "pulsedesk:fitness"
	keyActivities   = "pulsedesk:activities"
)

// Store implements the storage.Store interface using Redis.
type Store struct {
	client        *redis.Client
	usageStore    *usageStore
	fitnessStore  *fitnessStore
	activityStore *activityStore
}

// Open creates a new Redis-backed storage instance.
func Open(cfg config.RedisConfig) (*Store, error) {
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	store := &Store{
		client:        client,
		usageStore:    &usageStore{client: client},
		fitnessStore:  &fitnessStore{client: client},
		activityStore: &activityStore{client: client},
	}

	return store, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Usage returns the UsageStore implementation.
func (s *Store) Usage() storage.UsageStore {
	return s.usageStore
}

// Fitness returns the FitnessStore implementation.
func (s *Store) Fitness() storage.FitnessStore {
	return s.fitnessStore
}

// Activities returns the ActivityStore implementation.
func (s *Store) Activities() storage.ActivityStore {
	return s.activityStore
}

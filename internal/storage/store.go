package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface. Each sub-store owns an
// independent persisted key; no operation spans two of them.
type Store interface {
	Close() error
	Usage() UsageStore
	Fitness() FitnessStore
	Activities() ActivityStore
}

// UsageStore manages the per-target usage mapping and the daily
// rollover marker. The mapping is read and written whole: callers load
// the full map, mutate it, and write it back, so partial updates are
// never visible to readers.
type UsageStore interface {
	GetAll(ctx context.Context) (map[string]UsageRecord, error)
	PutAll(ctx context.Context, records map[string]UsageRecord) error
	Clear(ctx context.Context) error
	GetRolloverDate(ctx context.Context) (string, error)
	SetRolloverDate(ctx context.Context, date string) error
}

// FitnessStore manages the latest sensor snapshot. Get does not fail on
// absent data; it returns zeroed defaults instead.
type FitnessStore interface {
	Get(ctx context.Context) (FitnessSnapshot, error)
	Put(ctx context.Context, snapshot FitnessSnapshot) error
}

// ActivityStore manages the append-only manual activity log.
type ActivityStore interface {
	Append(ctx context.Context, entry ActivityEntry) error
	List(ctx context.Context) ([]ActivityEntry, error)
}

package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pulsedesk/pulsedesk/internal/storage"
	"go.etcd.io/bbolt"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "test.bolt"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUsageStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	usage := store.Usage()
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	records := map[string]storage.UsageRecord{
		"GitHub":  {Today: 12.5, Yesterday: 30},
		"VS Code": {Today: 45, Active: true, ActiveSince: &now},
	}

	if err := usage.PutAll(ctx, records); err != nil {
		t.Fatalf("put all: %v", err)
	}

	loaded, err := usage.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 records, got %d", len(loaded))
	}
	if loaded["GitHub"].Today != 12.5 || loaded["GitHub"].Yesterday != 30 {
		t.Fatalf("unexpected GitHub record: %+v", loaded["GitHub"])
	}
	record := loaded["VS Code"]
	if !record.Active || record.ActiveSince == nil || !record.ActiveSince.Equal(now) {
		t.Fatalf("open interval not preserved: %+v", record)
	}
}

func TestUsageStoreEmptyWhenAbsent(t *testing.T) {
	store := openTestStore(t)

	records, err := store.Usage().GetAll(context.Background())
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty mapping, got %d records", len(records))
	}
}

func TestUsageStoreClear(t *testing.T) {
	store := openTestStore(t)
	usage := store.Usage()
	ctx := context.Background()

	if err := usage.PutAll(ctx, map[string]storage.UsageRecord{"GitHub": {Today: 5}}); err != nil {
		t.Fatalf("put all: %v", err)
	}
	if err := usage.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	records, err := usage.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty mapping after clear, got %d records", len(records))
	}
}

func TestCorruptUsageMappingTreatedAsAbsent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketUsage)).Put([]byte(keyUsageMap), []byte("{not json"))
	})
	if err != nil {
		t.Fatalf("write corrupt value: %v", err)
	}

	records, err := store.Usage().GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected corrupt mapping read as empty, got %d records", len(records))
	}
}

func TestRolloverDateMarker(t *testing.T) {
	store := openTestStore(t)
	usage := store.Usage()
	ctx := context.Background()

	if _, err := usage.GetRolloverDate(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first rollover, got %v", err)
	}

	if err := usage.SetRolloverDate(ctx, "2026-03-10"); err != nil {
		t.Fatalf("set marker: %v", err)
	}

	date, err := usage.GetRolloverDate(ctx)
	if err != nil {
		t.Fatalf("get marker: %v", err)
	}
	if date != "2026-03-10" {
		t.Fatalf("expected 2026-03-10, got %s", date)
	}
}

func TestFitnessStoreDefaultsAndRoundTrip(t *testing.T) {
	store := openTestStore(t)
	fitness := store.Fitness()
	ctx := context.Background()

	snapshot, err := fitness.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snapshot != (storage.FitnessSnapshot{}) {
		t.Fatalf("expected zeroed defaults, got %+v", snapshot)
	}

	want := storage.FitnessSnapshot{StepCount: 4200, HeartRate: 72, CaloriesBurned: 168}
	if err := fitness.Put(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}

	snapshot, err = fitness.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snapshot != want {
		t.Fatalf("expected %+v, got %+v", want, snapshot)
	}
}

func TestCorruptFitnessSnapshotTreatedAsAbsent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketFitness)).Put([]byte(keySnapshot), []byte("garbage"))
	})
	if err != nil {
		t.Fatalf("write corrupt value: %v", err)
	}

	snapshot, err := store.Fitness().Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snapshot != (storage.FitnessSnapshot{}) {
		t.Fatalf("expected zeroed defaults for corrupt data, got %+v", snapshot)
	}
}

func TestActivityStoreAppendAndList(t *testing.T) {
	store := openTestStore(t)
	activities := store.Activities()
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	entries := []storage.ActivityEntry{
		{Type: "GitHub", Minutes: 30, Timestamp: base},
		{Type: "Meetings", Minutes: 45, Timestamp: base.Add(time.Hour)},
		{Type: "VS Code", Minutes: 60, Timestamp: base.Add(2 * time.Hour)},
	}

	for _, entry := range entries {
		if err := activities.Append(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	listed, err := activities.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(listed))
	}
	for i, entry := range listed {
		if entry.Type != entries[i].Type || entry.Minutes != entries[i].Minutes {
			t.Fatalf("entry %d out of order: %+v", i, entry)
		}
	}
}

package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pulsedesk/pulsedesk/internal/metrics"
	"github.com/pulsedesk/pulsedesk/internal/storage"
	"github.com/rs/zerolog"
)

// markerLayout is the calendar-date format of the persisted rollover
// marker. Dates are compared by exact string equality.
const markerLayout = "2006-01-02"

// Rollover archives today's totals into yesterday's at most once per
// calendar day, driven by the persisted last-rollover marker. An absent
// marker (first run) counts as stale, so the first check always fires;
// archiving an empty mapping is harmless.
type Rollover struct {
	store  storage.UsageStore
	clock  Clock
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewRollover creates the daily rollover policy.
func NewRollover(store storage.UsageStore, clock Clock, logger zerolog.Logger) *Rollover {
	if clock == nil {
		clock = RealClock{}
	}
	return &Rollover{
		store:  store,
		clock:  clock,
		logger: logger.With().Str("component", "rollover").Logger(),
	}
}

// Check fires the rollover if the marker does not match today's date
// and reports whether it did. Once the marker is fresh, further checks
// on the same day change nothing.
//
// Rollover force-stops records left active by a previous process
// (crash, unclean shutdown); the partial interval is discarded.
func (r *Rollover) Check(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := r.clock.Now().Format(markerLayout)

	last, err := r.store.GetRolloverDate(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("load rollover marker: %w", err)
	}
	if err == nil && last == today {
		return false, nil
	}

	records, err := r.store.GetAll(ctx)
	if err != nil {
		return false, fmt.Errorf("load usage mapping: %w", err)
	}

	forcedStops := 0
	for name, record := range records {
		if record.Active {
			forcedStops++
		}
		record.Yesterday = record.Today
		record.Today = 0
		record.Active = false
		record.ActiveSince = nil
		records[name] = record
	}

	if err := r.store.PutAll(ctx, records); err != nil {
		return false, fmt.Errorf("persist usage mapping: %w", err)
	}
	if err := r.store.SetRolloverDate(ctx, today); err != nil {
		return false, fmt.Errorf("persist rollover marker: %w", err)
	}

	metrics.RolloversTotal.Inc()

	r.logger.Info().
		Str("date", today).
		Str("previous", last).
		Int("records", len(records)).
		Int("forced_stops", forcedStops).
		Msg("Daily rollover complete")

	return true, nil
}

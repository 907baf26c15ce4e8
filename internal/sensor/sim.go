package sensor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pulsedesk/pulsedesk/internal/metrics"
	"github.com/pulsedesk/pulsedesk/internal/storage"
	"github.com/rs/zerolog"
)

// SimulatorConfig tunes the simulated feed.
type SimulatorConfig struct {
	DeviceName      string
	UpdateInterval  time.Duration
	StepsPerTickMin int
	StepsPerTickMax int
	CaloriesPerStep float64
	SeedStepsMin    int
	SeedStepsMax    int
}

// Simulator is a sensor adapter backed by a synthetic wearable. While
// connected it runs a background loop that bumps the step count by a
// small random amount each tick and derives calories at a fixed ratio,
// persisting every update so Snapshot stays current without polling
// the device. Disconnecting takes effect on in-memory state
// immediately; a tick racing the disconnect will not write.
type Simulator struct {
	store  storage.FitnessStore
	config SimulatorConfig
	logger zerolog.Logger

	mu           sync.Mutex
	connected    bool
	handle       Handle
	stopChan     chan struct{}
	onDisconnect func(handle Handle)
	rng          *rand.Rand
}

// NewSimulator creates a simulated sensor adapter persisting through
// the given fitness store.
func NewSimulator(store storage.FitnessStore, config SimulatorConfig, logger zerolog.Logger) *Simulator {
	if config.DeviceName == "" {
		config.DeviceName = "simulated smartwatch"
	}
	if config.UpdateInterval <= 0 {
		config.UpdateInterval = 5 * time.Second
	}
	if config.StepsPerTickMin <= 0 {
		config.StepsPerTickMin = 5
	}
	if config.StepsPerTickMax < config.StepsPerTickMin {
		config.StepsPerTickMax = config.StepsPerTickMin + 14
	}
	if config.CaloriesPerStep <= 0 {
		config.CaloriesPerStep = 0.04
	}
	if config.SeedStepsMin <= 0 {
		config.SeedStepsMin = 2000
	}
	if config.SeedStepsMax < config.SeedStepsMin {
		config.SeedStepsMax = config.SeedStepsMin + 2999
	}

	return &Simulator{
		store:  store,
		config: config,
		logger: logger.With().Str("component", "sensor-sim").Logger(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Available reports true; the simulator needs no hardware.
func (s *Simulator) Available() bool { return true }

// Connect establishes the simulated connection and starts the update
// loop. A second connect while connected fails.
func (s *Simulator) Connect(ctx context.Context) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return Result{Success: false, Message: "a device is already connected"}
	}

	handle, err := newHandle()
	if err != nil {
		return Result{Success: false, Message: "failed to establish connection: " + err.Error()}
	}

	// Seed the step count so a freshly connected device does not start
	// the day at zero.
	snapshot, err := s.store.Get(ctx)
	if err != nil {
		return Result{Success: false, Message: "failed to read fitness data: " + err.Error()}
	}
	if snapshot.StepCount == 0 {
		span := s.config.SeedStepsMax - s.config.SeedStepsMin + 1
		snapshot.StepCount = s.config.SeedStepsMin + s.rng.Intn(span)
	}
	if snapshot.CaloriesBurned == 0 {
		snapshot.CaloriesBurned = int(float64(snapshot.StepCount) * s.config.CaloriesPerStep)
	}
	if err := s.store.Put(ctx, snapshot); err != nil {
		return Result{Success: false, Message: "failed to persist fitness data: " + err.Error()}
	}

	s.connected = true
	s.handle = handle
	s.stopChan = make(chan struct{})

	go s.run(s.stopChan)

	metrics.SensorConnected.Set(1)

	s.logger.Info().
		Str("device", s.config.DeviceName).
		Str("handle", string(handle)).
		Int("seed_steps", snapshot.StepCount).
		Msg("Sensor connected")

	return Result{
		Success: true,
		Message: "Connected to " + s.config.DeviceName,
		Handle:  handle,
	}
}

// Disconnect tears down the connection identified by handle and stops
// the update loop. Unknown handles are ignored.
func (s *Simulator) Disconnect(handle Handle) {
	s.mu.Lock()
	if !s.connected || s.handle != handle {
		s.mu.Unlock()
		return
	}

	s.connected = false
	s.handle = ""
	close(s.stopChan)
	s.stopChan = nil
	callback := s.onDisconnect
	s.mu.Unlock()

	metrics.SensorConnected.Set(0)

	s.logger.Info().
		Str("device", s.config.DeviceName).
		Str("handle", string(handle)).
		Msg("Sensor disconnected")

	if callback != nil {
		callback(handle)
	}
}

// Snapshot returns the last persisted fitness values, zeroed when
// nothing has been recorded.
func (s *Simulator) Snapshot(ctx context.Context) storage.FitnessSnapshot {
	snapshot, err := s.store.Get(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read fitness snapshot")
		return storage.FitnessSnapshot{}
	}
	return snapshot
}

// OnDisconnect registers the callback fired after any disconnection.
func (s *Simulator) OnDisconnect(fn func(handle Handle)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisconnect = fn
}

// run is the background update loop. It exits when stopChan closes.
func (s *Simulator) run(stopChan <-chan struct{}) {
	ticker := time.NewTicker(s.config.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-stopChan:
			return
		}
	}
}

// tick applies one simulated update. It holds the mutex for the whole
// read-modify-write so a disconnect cannot interleave with the write.
func (s *Simulator) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snapshot, err := s.store.Get(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read fitness snapshot")
		return
	}

	span := s.config.StepsPerTickMax - s.config.StepsPerTickMin + 1
	newSteps := s.config.StepsPerTickMin + s.rng.Intn(span)
	snapshot.StepCount += newSteps
	snapshot.CaloriesBurned += int(float64(newSteps)*s.config.CaloriesPerStep + 0.5)

	if err := s.store.Put(ctx, snapshot); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist fitness snapshot")
		return
	}

	metrics.SensorUpdates.Inc()

	s.logger.Debug().
		Int("steps", snapshot.StepCount).
		Int("calories", snapshot.CaloriesBurned).
		Msg("Sensor update persisted")
}

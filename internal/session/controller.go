package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/pulsedesk/pulsedesk/internal/tracking"
	"github.com/rs/zerolog"
)

// Controller owns the notion of the current tracked target and
// translates user intents and page visibility transitions into
// accounting engine start/stop calls. It upholds the one-open-interval
// rule the tracker itself does not enforce: the previous target is
// always stopped before a new one starts.
//
// State is ephemeral; a process restart loses the current target but
// never recorded minutes (those live in the tracker's store).
type Controller struct {
	tracker *tracking.Tracker
	logger  zerolog.Logger

	mu            sync.Mutex
	currentTarget string
	tracking      bool
	paused        bool
}

// State is a snapshot of the controller's session state.
type State struct {
	CurrentTarget string `json:"current_target,omitempty"`
	Tracking      bool   `json:"tracking"`
	Paused        bool   `json:"paused"`
}

// NewController creates a session controller over the given tracker.
func NewController(tracker *tracking.Tracker, logger zerolog.Logger) *Controller {
	return &Controller{
		tracker: tracker,
		logger:  logger.With().Str("component", "session-controller").Logger(),
	}
}

// StartTracking selects target as the current target and opens an
// accounting interval for it, closing any interval open for the
// previously selected target first.
func (c *Controller) StartTracking(ctx context.Context, target string) error {
	if target == "" {
		return fmt.Errorf("target is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tracking && c.currentTarget != "" && c.currentTarget != target {
		if err := c.tracker.Stop(ctx, c.currentTarget); err != nil {
			return fmt.Errorf("stop previous target: %w", err)
		}
	}

	if err := c.tracker.Start(ctx, target); err != nil {
		return err
	}

	c.currentTarget = target
	c.tracking = true
	c.paused = false

	c.logger.Info().Str("target", target).Msg("Tracking started")
	return nil
}

// StopTracking closes the current accounting interval. The current
// target is kept so callers can show what was last tracked; only the
// paused flag decides whether a later visible transition resumes.
func (c *Controller) StopTracking(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stopLocked(ctx)
}

func (c *Controller) stopLocked(ctx context.Context) error {
	if c.currentTarget == "" {
		return nil
	}

	if err := c.tracker.Stop(ctx, c.currentTarget); err != nil {
		return err
	}

	c.tracking = false
	c.paused = false

	c.logger.Info().Str("target", c.currentTarget).Msg("Tracking stopped")
	return nil
}

// HandleVisibility reacts to a page visibility transition. Going
// hidden pauses an active session: accounting stops but the target is
// kept so the session survives. Coming back visible resumes a paused
// session unconditionally; time spent hidden is never accrued. An
// explicitly stopped session is not resumed.
func (c *Controller) HandleVisibility(ctx context.Context, hidden bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hidden {
		if !c.tracking {
			return nil
		}
		if err := c.tracker.Stop(ctx, c.currentTarget); err != nil {
			return err
		}
		c.tracking = false
		c.paused = true

		c.logger.Debug().Str("target", c.currentTarget).Msg("Session paused on hidden")
		return nil
	}

	if !c.paused || c.currentTarget == "" {
		return nil
	}
	if err := c.tracker.Start(ctx, c.currentTarget); err != nil {
		return err
	}
	c.tracking = true
	c.paused = false

	c.logger.Debug().Str("target", c.currentTarget).Msg("Session resumed on visible")
	return nil
}

// Reset clears all usage data and the session state together, keeping
// the cross-component invariant that an empty store has no active
// session.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.tracker.Reset(ctx); err != nil {
		return err
	}

	c.currentTarget = ""
	c.tracking = false
	c.paused = false

	c.logger.Info().Msg("Session state reset")
	return nil
}

// State returns a snapshot of the session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		CurrentTarget: c.currentTarget,
		Tracking:      c.tracking,
		Paused:        c.paused,
	}
}

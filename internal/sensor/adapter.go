package sensor

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/pulsedesk/pulsedesk/internal/storage"
)

// Handle identifies one established sensor connection.
type Handle string

// Result reports the outcome of a connection attempt. Ordinary
// failures (no device, unsupported host) surface here, not as errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Handle  Handle `json:"handle,omitempty"`
}

// Adapter is the capability interface of the wearable sensor feed.
// Snapshot always succeeds, returning last-known or zeroed values, so
// consumers need no special casing when no device is around.
type Adapter interface {
	Available() bool
	Connect(ctx context.Context) Result
	Disconnect(handle Handle)
	Snapshot(ctx context.Context) storage.FitnessSnapshot
	OnDisconnect(fn func(handle Handle))
}

// Unavailable is the no-op adapter used when no sensor backend is
// configured. All snapshots are zeroed and connection attempts fail
// with a message.
type Unavailable struct{}

// Available reports false.
func (Unavailable) Available() bool { return false }

// Connect always fails.
func (Unavailable) Connect(context.Context) Result {
	return Result{Success: false, Message: "no sensor feed is available on this host"}
}

// Disconnect is a no-op.
func (Unavailable) Disconnect(Handle) {}

// Snapshot returns zeroed values.
func (Unavailable) Snapshot(context.Context) storage.FitnessSnapshot {
	return storage.FitnessSnapshot{}
}

// OnDisconnect is a no-op; there is never a connection to lose.
func (Unavailable) OnDisconnect(func(handle Handle)) {}

// newHandle generates a unique connection handle.
func newHandle() (Handle, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate handle: %w", err)
	}
	return Handle(hex.EncodeToString(buf)), nil
}

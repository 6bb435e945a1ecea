package events

import (
	"context"

	"github.com/hasanawais/pica/internal/core"
)

// Sink is the interface for event output destinations: Publish takes a
// core.Event since this emulator's payload is world-state, not mesh
// traffic.
type Sink interface {
	// Publish forwards ev to the destination. Returns an error if it
	// cannot be delivered.
	Publish(ctx context.Context, ev core.Event) error

	// Close cleanly shuts the sink down and releases its resources.
	Close() error

	// Name returns a unique identifier for this sink, used in log fields.
	Name() string
}

package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/hasanawais/pica/internal/core"
)

// Dispatcher drains a core.Broadcaster subscription and fans each event out
// to every configured Sink: one goroutine reading a channel, one
// send-to-every-destination helper, errors logged and counted rather than
// propagated.
type Dispatcher struct {
	sinks []Sink
	log   *zap.Logger

	Errors uint64
}

// NewDispatcher creates a Dispatcher over sinks.
func NewDispatcher(sinks []Sink, log *zap.Logger) *Dispatcher {
	return &Dispatcher{sinks: sinks, log: log}
}

// Run subscribes to events and fans them out until ctx is canceled or the
// broadcaster channel closes. Call in its own goroutine.
func (d *Dispatcher) Run(ctx context.Context, events *core.Broadcaster) {
	ch, unsubscribe := events.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			d.closeSinks()
			return
		case ev, ok := <-ch:
			if !ok {
				d.closeSinks()
				return
			}
			d.publish(ctx, ev)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, ev core.Event) {
	for _, sink := range d.sinks {
		if err := sink.Publish(ctx, ev); err != nil {
			d.Errors++
			d.log.Warn("event sink publish failed", zap.String("sink", sink.Name()), zap.Error(err))
		}
	}
}

func (d *Dispatcher) closeSinks() {
	for _, sink := range d.sinks {
		if err := sink.Close(); err != nil {
			d.log.Warn("error closing event sink", zap.String("sink", sink.Name()), zap.Error(err))
		}
	}
}

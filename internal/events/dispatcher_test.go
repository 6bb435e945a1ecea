package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hasanawais/pica/internal/core"
	"github.com/hasanawais/pica/internal/model"
)

type recordingSink struct {
	mu     sync.Mutex
	events []core.Event
	closed bool
	failOn string
}

func (r *recordingSink) Publish(_ context.Context, ev core.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn != "" {
		if _, ok := ev.(core.DeviceRemoved); ok {
			return errors.New(r.failOn)
		}
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSink) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recordingSink) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func TestDispatcherFansOutAndCloses(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher([]Sink{sink}, zap.NewNop())

	broadcaster := core.NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		d.Run(ctx, broadcaster)
		close(done)
	}()

	mac := model.NewShortAddress([2]byte{0x01, 0x00})
	broadcaster.Publish(core.DeviceAdded{Category: model.CategoryUCI, MacAddress: mac})

	deadline := time.Now().Add(time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if sink.count() != 1 {
		t.Fatalf("sink received %d events, want 1", sink.count())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after context cancellation")
	}
	if !sink.isClosed() {
		t.Fatal("expected sink to be closed on shutdown")
	}
}

func TestDispatcherCountsSinkErrors(t *testing.T) {
	sink := &recordingSink{failOn: "boom"}
	d := NewDispatcher([]Sink{sink}, zap.NewNop())

	mac := model.NewShortAddress([2]byte{0x02, 0x00})
	d.publish(context.Background(), core.DeviceRemoved{Category: model.CategoryUCI, MacAddress: mac})

	if d.Errors != 1 {
		t.Fatalf("Errors = %d, want 1", d.Errors)
	}
}

package core

import (
	"sync"

	"github.com/hasanawais/pica/internal/model"
)

// Event is the closed set of world events the Control Core broadcasts to
// observers (event sinks, the TUI, tests).
type Event interface {
	isEvent()
}

// DeviceAdded is emitted when a Device or Anchor is created.
type DeviceAdded struct {
	Category   model.Category
	MacAddress model.MacAddress
	Position   model.Position
}

// DeviceRemoved is emitted when a Device or Anchor is removed.
type DeviceRemoved struct {
	Category   model.Category
	MacAddress model.MacAddress
}

// DeviceUpdated is emitted when a participant's position changes.
type DeviceUpdated struct {
	Category   model.Category
	MacAddress model.MacAddress
	Position   model.Position
}

// NeighborUpdated is the view-layer pair emitted for every other
// participant whenever one participant's position changes.
type NeighborUpdated struct {
	SourceCategory        model.Category
	SourceMacAddress      model.MacAddress
	DestinationCategory   model.Category
	DestinationMacAddress model.MacAddress
	Distance              uint16
	Azimuth               int16
	Elevation             int8
}

func (DeviceAdded) isEvent()     {}
func (DeviceRemoved) isEvent()   {}
func (DeviceUpdated) isEvent()   {}
func (NeighborUpdated) isEvent() {}

// eventSubscriberCapacity bounds how far behind a slow subscriber may
// fall before its events start being dropped.
const eventSubscriberCapacity = 64

// Broadcaster fans Events out to any number of subscribers. It is the
// Go stand-in for tokio::sync::broadcast: delivery is best-effort, and a
// slow subscriber loses events rather than blocking the publisher,
// generalized from "N configured outputs" to "N dynamically
// (un)subscribing channels".
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroadcaster creates an empty event hub.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new observer and returns its event channel and
// an unsubscribe func. The channel is closed by Unsubscribe, never by the
// broadcaster on publish.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, eventSubscriberCapacity)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, unsubscribe
}

// Publish fans out an event to every current subscriber. A full
// subscriber channel means that subscriber is too slow; the event is
// dropped for it rather than blocking every other subscriber.
func (b *Broadcaster) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

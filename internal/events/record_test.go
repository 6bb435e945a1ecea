package events

import (
	"testing"
	"time"

	"github.com/hasanawais/pica/internal/core"
	"github.com/hasanawais/pica/internal/model"
)

func TestNewRecordDeviceAdded(t *testing.T) {
	mac := model.NewShortAddress([2]byte{0x34, 0x12})
	now := time.Unix(1000, 0)

	ev := core.DeviceAdded{Category: model.CategoryUCI, MacAddress: mac, Position: model.Position{X: 1, Y: 2, Z: 3}}
	rec := newRecord(ev, now)

	if rec.Type != "device_added" {
		t.Fatalf("type = %q, want device_added", rec.Type)
	}
	if rec.Mac != mac.String() {
		t.Fatalf("mac = %q, want %q", rec.Mac, mac.String())
	}
	if rec.X != 1 || rec.Y != 2 || rec.Z != 3 {
		t.Fatalf("position = (%d,%d,%d), want (1,2,3)", rec.X, rec.Y, rec.Z)
	}
	if !rec.Time.Equal(now) {
		t.Fatalf("time = %v, want %v", rec.Time, now)
	}
}

func TestNewRecordDeviceRemoved(t *testing.T) {
	mac := model.NewShortAddress([2]byte{0xCD, 0xAB})
	rec := newRecord(core.DeviceRemoved{Category: model.CategoryAnchor, MacAddress: mac}, time.Unix(0, 0))

	if rec.Type != "device_removed" {
		t.Fatalf("type = %q, want device_removed", rec.Type)
	}
	if rec.Category != "anchor" {
		t.Fatalf("category = %q, want anchor", rec.Category)
	}
}

func TestNewRecordNeighborUpdated(t *testing.T) {
	src := model.NewShortAddress([2]byte{0x01, 0x00})
	dst := model.NewShortAddress([2]byte{0x02, 0x00})

	ev := core.NeighborUpdated{
		SourceCategory: model.CategoryUCI, SourceMacAddress: src,
		DestinationCategory: model.CategoryAnchor, DestinationMacAddress: dst,
		Distance: 150, Azimuth: -45, Elevation: 10,
	}
	rec := newRecord(ev, time.Unix(0, 0))

	if rec.Type != "neighbor_updated" {
		t.Fatalf("type = %q, want neighbor_updated", rec.Type)
	}
	if rec.SourceMac != src.String() || rec.DestMac != dst.String() {
		t.Fatalf("source/dest mac mismatch: %+v", rec)
	}
	if rec.Distance != 150 || rec.NeighborAzimuth != -45 || rec.NeighborElevation != 10 {
		t.Fatalf("unexpected distance/bearing fields: %+v", rec)
	}
}

func TestNewRecordUnknownEvent(t *testing.T) {
	rec := newRecord(nil, time.Unix(0, 0))
	if rec.Type != "unknown" {
		t.Fatalf("type = %q, want unknown", rec.Type)
	}
}

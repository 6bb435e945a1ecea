// Package events fans the Control Core's world events out to configurable
// sinks: stdout, file, webhook, MQTT. It stands in for a web UI by giving
// any of those collaborators a plain JSON feed to consume instead.
package events

import (
	"time"

	"github.com/hasanawais/pica/internal/core"
)

// Record is the self-describing, JSON-encodable rendering of a core.Event:
// category, mac (colon-hex), flattened position fields, and for neighbor
// events distance/azimuth/elevation.
type Record struct {
	Type      string    `json:"type"`
	Time      time.Time `json:"time"`
	Category  string    `json:"category,omitempty"`
	Mac       string    `json:"mac,omitempty"`
	X         int       `json:"x,omitempty"`
	Y         int       `json:"y,omitempty"`
	Z         int       `json:"z,omitempty"`
	Azimuth   int       `json:"azimuth,omitempty"`
	Elevation int       `json:"elevation,omitempty"`

	SourceCategory   string `json:"source_category,omitempty"`
	SourceMac        string `json:"source_mac,omitempty"`
	DestCategory     string `json:"dest_category,omitempty"`
	DestMac          string `json:"dest_mac,omitempty"`
	Distance         uint16 `json:"distance,omitempty"`
	NeighborAzimuth  int16  `json:"neighbor_azimuth,omitempty"`
	NeighborElevation int8  `json:"neighbor_elevation,omitempty"`
}

// newRecord renders ev into its wire Record. now is passed in rather than
// taken from time.Now() at the call site so tests can supply a fixed clock.
func newRecord(ev core.Event, now time.Time) Record {
	switch e := ev.(type) {
	case core.DeviceAdded:
		return Record{Type: "device_added", Time: now, Category: e.Category.String(), Mac: e.MacAddress.String(),
			X: e.Position.X, Y: e.Position.Y, Z: e.Position.Z, Azimuth: e.Position.Azimuth, Elevation: e.Position.Elevation}
	case core.DeviceRemoved:
		return Record{Type: "device_removed", Time: now, Category: e.Category.String(), Mac: e.MacAddress.String()}
	case core.DeviceUpdated:
		return Record{Type: "device_updated", Time: now, Category: e.Category.String(), Mac: e.MacAddress.String(),
			X: e.Position.X, Y: e.Position.Y, Z: e.Position.Z, Azimuth: e.Position.Azimuth, Elevation: e.Position.Elevation}
	case core.NeighborUpdated:
		return Record{
			Type: "neighbor_updated", Time: now,
			SourceCategory: e.SourceCategory.String(), SourceMac: e.SourceMacAddress.String(),
			DestCategory: e.DestinationCategory.String(), DestMac: e.DestinationMacAddress.String(),
			Distance: e.Distance, NeighborAzimuth: e.Azimuth, NeighborElevation: e.Elevation,
		}
	default:
		return Record{Type: "unknown", Time: now}
	}
}

package core

import (
	"github.com/hasanawais/pica/internal/model"
)

// registry owns every live device and anchor. It is only ever touched from
// the Control Core's single goroutine, so it needs no locking of its own.
type registry struct {
	devices    map[int]*Device
	anchors    map[model.MacAddress]model.Anchor
	nextHandle int
}

func newRegistry() *registry {
	return &registry{
		devices: make(map[int]*Device),
		anchors: make(map[model.MacAddress]model.Anchor),
	}
}

// addDevice allocates the next free handle for a newly connected host.
func (r *registry) addDevice(sendQueue chan<- []byte) *Device {
	handle := r.nextHandle
	r.nextHandle++
	d := NewDevice(handle, sendQueue)
	r.devices[handle] = d
	return d
}

func (r *registry) removeDevice(handle int) {
	if d, ok := r.devices[handle]; ok {
		d.Reset()
		delete(r.devices, handle)
	}
}

func (r *registry) deviceByHandle(handle int) (*Device, bool) {
	d, ok := r.devices[handle]
	return d, ok
}

// deviceByMac finds the device currently assigned a given mac address, if
// any — devices are keyed by handle, so this is a linear scan.
func (r *registry) deviceByMac(mac model.MacAddress) (*Device, bool) {
	for _, d := range r.devices {
		if d.MacAddress.Equal(mac) {
			return d, true
		}
	}
	return nil, false
}

// deviceBySessionOwner finds the device that owns the given (mac,
// session_id) pair — used to resolve the peer-initiated StopRanging
// command, which only carries the controlee's mac.
func (r *registry) deviceBySessionOwner(mac model.MacAddress, sessionID uint32) (*Device, bool) {
	d, ok := r.deviceByMac(mac)
	if !ok {
		return nil, false
	}
	if _, hasSession := d.Sessions[sessionID]; !hasSession {
		return nil, false
	}
	return d, true
}

func (r *registry) categoryOf(mac model.MacAddress) (model.Category, bool) {
	if _, ok := r.anchors[mac]; ok {
		return model.CategoryAnchor, true
	}
	if _, ok := r.deviceByMac(mac); ok {
		return model.CategoryUCI, true
	}
	return 0, false
}

func (r *registry) addAnchor(a model.Anchor) {
	r.anchors[a.MacAddress] = a
}

func (r *registry) removeAnchor(mac model.MacAddress) {
	delete(r.anchors, mac)
}

// participants returns every device and anchor other than excludeMac, in
// the order update_position's neighbor events and GetState both use:
// devices first, then anchors.
func (r *registry) participants(excludeMac model.MacAddress) []ParticipantState {
	var out []ParticipantState
	for _, d := range r.devices {
		if d.MacAddress.Equal(excludeMac) {
			continue
		}
		out = append(out, ParticipantState{Category: model.CategoryUCI, MacAddress: d.MacAddress, Position: d.Position})
	}
	for _, a := range r.anchors {
		if a.MacAddress.Equal(excludeMac) {
			continue
		}
		out = append(out, ParticipantState{Category: model.CategoryAnchor, MacAddress: a.MacAddress, Position: a.Position})
	}
	return out
}

// snapshot returns every participant for GetState, devices then anchors.
func (r *registry) snapshot() []ParticipantState {
	var out []ParticipantState
	for _, d := range r.devices {
		out = append(out, ParticipantState{Category: model.CategoryUCI, MacAddress: d.MacAddress, Position: d.Position})
	}
	for _, a := range r.anchors {
		out = append(out, ParticipantState{Category: model.CategoryAnchor, MacAddress: a.MacAddress, Position: a.Position})
	}
	return out
}

package core

import (
	"github.com/hasanawais/pica/internal/model"
	"github.com/hasanawais/pica/pkg/uci"
)

// Command is the closed set of messages the Control Core's event loop
// accepts on its single inbound channel. There is no open-ended command
// registry: every command this emulator understands is one of the
// concrete types below, dispatched by a type switch in Core.dispatch, the same
// way a bubbletea update loop dispatches tea.Msg.
type Command interface {
	isCoreCommand()
}

// Connect registers a newly accepted host connection as a Device.
type Connect struct {
	Outbound chan<- []byte
	Reply    chan<- int // receives the assigned device handle
}

// Disconnect removes the device owning handle and cancels its timers.
type Disconnect struct {
	Handle int
}

// Ranging triggers one ranging-engine pass for (handle, sessionID).
type Ranging struct {
	Handle    int
	SessionID uint32
}

// StopRanging is the in-band stop request a controller issues on behalf
// of a peer controlee.
type StopRanging struct {
	MacAddress model.MacAddress
	SessionID  uint32
}

// UciCommand routes a parsed host command to its owning device.
type UciCommand struct {
	Handle  int
	Command uci.Command
}

// UciData routes a parsed data fragment to its owning device's data path.
type UciData struct {
	Handle int
	Data   uci.DataPacket
}

// InitUciDevice assigns mac/position to the device currently known by mac,
// which already carries a placeholder mac assigned at connect time.
type InitUciDevice struct {
	MacAddress model.MacAddress
	Position   model.Position
	Reply      chan<- error
}

// SetPosition updates a device's or anchor's position and fans out the
// resulting neighbor-distance events.
type SetPosition struct {
	MacAddress model.MacAddress
	Position   model.Position
	Reply      chan<- error
}

// CreateAnchor inserts a new passive participant.
type CreateAnchor struct {
	MacAddress model.MacAddress
	Position   model.Position
	Reply      chan<- error
}

// DestroyAnchor removes a passive participant.
type DestroyAnchor struct {
	MacAddress model.MacAddress
	Reply      chan<- error
}

// ParticipantState is one row of a GetState snapshot.
type ParticipantState struct {
	Category   model.Category
	MacAddress model.MacAddress
	Position   model.Position
}

// GetState requests a snapshot of every device and anchor.
type GetState struct {
	Reply chan<- []ParticipantState
}

func (Connect) isCoreCommand()        {}
func (Disconnect) isCoreCommand()     {}
func (Ranging) isCoreCommand()        {}
func (StopRanging) isCoreCommand()    {}
func (UciCommand) isCoreCommand()     {}
func (UciData) isCoreCommand()        {}
func (InitUciDevice) isCoreCommand()  {}
func (SetPosition) isCoreCommand()    {}
func (CreateAnchor) isCoreCommand()   {}
func (DestroyAnchor) isCoreCommand()  {}
func (GetState) isCoreCommand()       {}

// ErrDeviceNotFound and ErrDeviceAlreadyExists are the two admin-command
// error kinds, delivered over a command's Reply channel.
type ErrDeviceNotFound struct {
	MacAddress model.MacAddress
}

func (e ErrDeviceNotFound) Error() string {
	return "device not found: " + e.MacAddress.String()
}

type ErrDeviceAlreadyExists struct {
	MacAddress model.MacAddress
}

func (e ErrDeviceAlreadyExists) Error() string {
	return "device already exists: " + e.MacAddress.String()
}

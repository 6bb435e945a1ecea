package core

import (
	"time"

	"go.uber.org/zap"

	"github.com/hasanawais/pica/internal/logging"
	"github.com/hasanawais/pica/internal/model"
	"github.com/hasanawais/pica/pkg/uci"
)

// MaxDevice bounds concurrent devices per run.
const MaxDevice = 16

// MaxSession bounds concurrent sessions per device.
const MaxSession = 8

// DeviceState is one of a device's two states.
type DeviceState int

const (
	DeviceStateReady DeviceState = iota
	DeviceStateActive
)

func (s DeviceState) String() string {
	if s == DeviceStateActive {
		return "active"
	}
	return "ready"
}

// Device is an active virtual UCI controller owning a host connection.
type Device struct {
	Handle          int
	MacAddress      model.MacAddress
	Position        model.Position
	State           DeviceState
	Sessions        map[uint32]*Session
	NActiveSessions int
	SendQueue       chan<- []byte
}

// NewDevice creates a device in state Ready with a default position and
// an empty session table, assigning it a deterministic placeholder MAC
// until the host initializes it.
func NewDevice(handle int, sendQueue chan<- []byte) *Device {
	return &Device{
		Handle:     handle,
		MacAddress: model.FromHandle(handle),
		Position:   model.Position{},
		State:      DeviceStateReady,
		Sessions:   make(map[uint32]*Session),
		SendQueue:  sendQueue,
	}
}

func (d *Device) enqueue(packet []byte) {
	select {
	case d.SendQueue <- packet:
	default:
		// The connection is backed up or closing; this is a logged,
		// non-fatal condition the connection's own failure path will
		// clean up.
		logging.Warn("dropped outbound packet, send queue full", zap.Int("handle", d.Handle))
	}
}

// Reset clears all sessions, cancels their timers, and returns the device
// to Ready. Always succeeds.
func (d *Device) Reset() {
	for _, s := range d.Sessions {
		s.stop()
	}
	d.Sessions = make(map[uint32]*Session)
	d.NActiveSessions = 0
	d.State = DeviceStateReady
}

// HandleDeviceReset implements the DeviceReset command.
func (d *Device) HandleDeviceReset() []byte {
	d.Reset()
	return uci.BuildStatusResponse(uci.GroupIDCore, uci.OpcodeDeviceReset, uci.StatusOk)
}

// HandleGetDeviceInfo implements the read-only GetDeviceInfo command.
func (d *Device) HandleGetDeviceInfo() []byte {
	return uci.BuildGetDeviceInfoResponse(uci.StatusOk, uci.DeviceInfo{
		UciVersion: 0x0100,
		MacAddress: d.MacAddress,
	})
}

// HandleSessionInit implements SessionInit: creates a session in Init if
// the id is unused and the device is under its session limit.
func (d *Device) HandleSessionInit(sessionID uint32) []byte {
	status := uci.StatusOk
	switch {
	case d.Sessions[sessionID] != nil:
		status = uci.StatusSessionDuplicate
	case len(d.Sessions) >= MaxSession:
		status = uci.StatusMaxSessionsExceeded
	default:
		d.Sessions[sessionID] = NewSession(sessionID)
	}
	return uci.BuildStatusResponse(uci.GroupIDSessionConfig, uci.OpcodeSessionInit, status)
}

// HandleSessionDeinit implements SessionDeinit.
func (d *Device) HandleSessionDeinit(sessionID uint32) []byte {
	session, ok := d.Sessions[sessionID]
	if !ok {
		return uci.BuildStatusResponse(uci.GroupIDSessionConfig, uci.OpcodeSessionDeinit, uci.StatusSessionNotExist)
	}
	wasActive := session.State == SessionStateActive
	session.deinit()
	delete(d.Sessions, sessionID)
	if wasActive {
		d.decrementActive()
	}
	return uci.BuildStatusResponse(uci.GroupIDSessionConfig, uci.OpcodeSessionDeinit, uci.StatusOk)
}

// HandleSessionSetAppConfig implements SessionSetAppConfig.
func (d *Device) HandleSessionSetAppConfig(sessionID uint32, params uci.AppConfigParams) []byte {
	session, ok := d.Sessions[sessionID]
	if !ok {
		return uci.BuildStatusResponse(uci.GroupIDSessionConfig, uci.OpcodeSessionSetAppConfig, uci.StatusSessionNotExist)
	}
	status := uci.StatusOk
	if err := session.SetAppConfig(params); err != nil {
		status = uci.StatusInvalidParam
	}
	return uci.BuildStatusResponse(uci.GroupIDSessionConfig, uci.OpcodeSessionSetAppConfig, status)
}

// HandleSessionStart implements SessionStart: spawns the session's
// periodic ranging tick, tick being the callback that asks the Control
// Core to run one ranging pass for (device, session).
func (d *Device) HandleSessionStart(sessionID uint32, tick func()) []byte {
	session, ok := d.Sessions[sessionID]
	if !ok || session.State != SessionStateIdle {
		return uci.BuildStatusResponse(uci.GroupIDSessionControl, uci.OpcodeSessionStart, uci.StatusSessionNotConfigured)
	}

	interval := time.Duration(session.AppConfig.RangingIntervalMs) * time.Millisecond
	cancel := rangingTicker(interval, tick)
	session.start(cancel)

	d.NActiveSessions++
	d.State = DeviceStateActive

	return uci.BuildStatusResponse(uci.GroupIDSessionControl, uci.OpcodeSessionStart, uci.StatusOk)
}

// HandleSessionStop implements SessionStop.
func (d *Device) HandleSessionStop(sessionID uint32) []byte {
	session, ok := d.Sessions[sessionID]
	if !ok || session.State != SessionStateActive {
		return uci.BuildStatusResponse(uci.GroupIDSessionControl, uci.OpcodeSessionStop, uci.StatusOk)
	}
	session.stop()
	d.decrementActive()
	return uci.BuildStatusResponse(uci.GroupIDSessionControl, uci.OpcodeSessionStop, uci.StatusOk)
}

// stopInbandRanging implements the in-band StopRanging path: if a
// matching Active session is found it transitions to Idle and the
// device's active-session count and state are adjusted. No stop reason is
// recorded on the session or reported to the host.
func (d *Device) stopInbandRanging(sessionID uint32) bool {
	session, ok := d.Sessions[sessionID]
	if !ok || session.State != SessionStateActive {
		return false
	}
	session.stop()
	d.decrementActive()
	return true
}

func (d *Device) decrementActive() {
	if d.NActiveSessions > 0 {
		d.NActiveSessions--
	}
	if d.NActiveSessions == 0 {
		d.State = DeviceStateReady
	}
}

// GetSession looks up a session by id.
func (d *Device) GetSession(sessionID uint32) (*Session, bool) {
	s, ok := d.Sessions[sessionID]
	return s, ok
}

// DispatchDataPath handles a data-path fragment: the emulator
// always acknowledges with a SessionControlNotification carrying the
// fragment's apparent session; extended diagnostics are left to the
// host.
func (d *Device) DispatchDataPath(data uci.DataPacket) []byte {
	sessionID := uint32(data.SubType)
	status := uci.StatusSessionNotExist
	if _, ok := d.Sessions[sessionID]; ok {
		status = uci.StatusOk
	}
	return uci.BuildSessionControlNotification(sessionID, status)
}

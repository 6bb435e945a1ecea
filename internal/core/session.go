package core

import (
	"errors"
	"time"

	"github.com/hasanawais/pica/internal/model"
	"github.com/hasanawais/pica/pkg/uci"
)

// SessionState is one of a session's four lifecycle states.
type SessionState int

const (
	SessionStateInit SessionState = iota
	SessionStateDeinit
	SessionStateIdle
	SessionStateActive
)

func (s SessionState) String() string {
	switch s {
	case SessionStateInit:
		return "init"
	case SessionStateDeinit:
		return "deinit"
	case SessionStateIdle:
		return "idle"
	case SessionStateActive:
		return "active"
	default:
		return "unknown"
	}
}

// StopReason records why an Active session transitioned away, mirroring
// UCI's own ReasonCode.
type StopReason int

const (
	StopReasonNone StopReason = iota
	StopReasonHostRequest
	StopReasonInbandSignal
)

// defaultRangingIntervalMs is used until the host configures one.
const defaultRangingIntervalMs = 200

// AppConfig is a session's merged configuration bag. Pointer fields in
// uci.AppConfigParams collapse here into concrete, possibly-zero values
// once mandatory configuration is complete.
type AppConfig struct {
	DeviceMacAddress  model.MacAddress
	DestMacAddresses  []model.MacAddress
	RangingIntervalMs uint32
	Role              uci.Role
	RangingDataNtf    uci.RangingNtfConfig
	ChannelNumber     uint8

	haveDeviceMac bool
	haveDestMacs  bool
	haveRole      bool
}

// complete reports whether the mandatory app-config keys are all
// present: device_mac_address, destination mac list, ranging interval,
// notification policy, and role. Ranging interval and notification
// policy default rather than block completion, since many real hosts
// rely on device defaults for them.
func (c AppConfig) complete() bool {
	return c.haveDeviceMac && c.haveDestMacs && c.haveRole
}

// canStartRangingWithPeer reports whether two sessions' configurations
// are compatible enough to range with each other: opposite roles (one
// controller, one controlee) on the same channel.
func (c AppConfig) canStartRangingWithPeer(other AppConfig) bool {
	return c.Role != other.Role && c.ChannelNumber == other.ChannelNumber
}

func (c *AppConfig) merge(params uci.AppConfigParams) {
	if params.DeviceMacAddress != nil {
		c.DeviceMacAddress = *params.DeviceMacAddress
		c.haveDeviceMac = true
	}
	if params.HasDestMacAddresses {
		c.DestMacAddresses = params.DestMacAddresses
		c.haveDestMacs = true
	}
	if params.RangingIntervalMs != nil {
		c.RangingIntervalMs = *params.RangingIntervalMs
	} else if c.RangingIntervalMs == 0 {
		c.RangingIntervalMs = defaultRangingIntervalMs
	}
	if params.Role != nil {
		c.Role = *params.Role
		c.haveRole = true
	}
	if params.RangingDataNtf != nil {
		c.RangingDataNtf = *params.RangingDataNtf
	}
	if params.ChannelNumber != nil {
		c.ChannelNumber = *params.ChannelNumber
	}
}

// Session is a per-(device, session_id) ranging state machine.
type Session struct {
	ID             uint32
	State          SessionState
	AppConfig      AppConfig
	SequenceNumber uint32

	cancelTick func()
}

var (
	// ErrSessionNotInConfigStates is returned when SetAppConfig is called
	// outside Init/Idle.
	ErrSessionNotInConfigStates = errors.New("core: session not in Init or Idle state")
)

// NewSession creates a session in state Init.
func NewSession(id uint32) *Session {
	return &Session{ID: id, State: SessionStateInit}
}

// SetAppConfig merges params onto the session's configuration. It is
// only valid in Init or Idle; once the mandatory keys are complete it
// transitions Init -> Idle (Idle stays Idle, allowing reconfiguration).
func (s *Session) SetAppConfig(params uci.AppConfigParams) error {
	if s.State != SessionStateInit && s.State != SessionStateIdle {
		return ErrSessionNotInConfigStates
	}
	s.AppConfig.merge(params)
	if s.State == SessionStateInit && s.AppConfig.complete() {
		s.State = SessionStateIdle
	}
	return nil
}

// destMacAddresses returns the peers this session is configured to range
// against.
func (s *Session) destMacAddresses() []model.MacAddress {
	return s.AppConfig.DestMacAddresses
}

// start transitions Idle -> Active, arming tick with a cancel func the
// caller must invoke on every exit from Active.
func (s *Session) start(cancel func()) {
	s.State = SessionStateActive
	s.cancelTick = cancel
}

// stop cancels any running ranging timer and moves the session to Idle.
// Safe to call from any state; a no-op if no timer is armed.
func (s *Session) stop() {
	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}
	if s.State == SessionStateActive {
		s.State = SessionStateIdle
	}
}

// deinit cancels any timer and marks the session Deinit; the caller is
// responsible for removing it from the owning device's session table.
func (s *Session) deinit() {
	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}
	s.State = SessionStateDeinit
}

// rangingTicker starts a goroutine that calls tick once per interval
// until the returned cancel func is called: a time.Ticker plus a stop
// channel. The tick itself never touches state directly, only the
// Control Core does — periodic work without threads.
func rangingTicker(interval time.Duration, tick func()) (cancel func()) {
	stop := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				tick()
			}
		}
	}()
	var once bool
	return func() {
		if !once {
			once = true
			close(stop)
		}
	}
}

package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/hasanawais/pica/internal/model"
	"github.com/hasanawais/pica/pkg/uci"
)

// Core is the Control Core: a single goroutine owning every device, anchor
// and session, serialized behind one inbound command channel carrying the
// closed Command union — one authority, one goroutine.
type Core struct {
	commands chan Command
	registry *registry
	events   *Broadcaster
	log      *zap.Logger
}

// channelCapacity bounds in-flight commands at MaxSession * MaxDevice,
// sized so that every device's every session can have
// one outstanding ranging tick queued without ever blocking the core.
const channelCapacity = MaxSession * MaxDevice

// NewCore creates a Control Core ready to Run.
func NewCore(log *zap.Logger) *Core {
	return &Core{
		commands: make(chan Command, channelCapacity),
		registry: newRegistry(),
		events:   NewBroadcaster(),
		log:      log,
	}
}

// Commands returns the channel callers (connections, the TUI, tests)
// submit Commands on.
func (c *Core) Commands() chan<- Command {
	return c.commands
}

// Events returns the event broadcaster, so the TUI and event sinks can
// Subscribe independently of the command path.
func (c *Core) Events() *Broadcaster {
	return c.events
}

// Run drains the command channel until ctx is canceled, dispatching each
// Command by concrete type, the same way a bubbletea update loop
// dispatches tea.Msg.
func (c *Core) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.commands:
			c.dispatch(cmd)
		}
	}
}

func (c *Core) dispatch(cmd Command) {
	switch m := cmd.(type) {
	case Connect:
		device := c.registry.addDevice(m.Outbound)
		m.Reply <- device.Handle
	case Disconnect:
		c.handleDisconnect(m.Handle)
	case Ranging:
		c.runRanging(m.Handle, m.SessionID)
	case StopRanging:
		c.handleStopRanging(m)
	case UciCommand:
		c.handleUciCommand(m)
	case UciData:
		c.handleUciData(m)
	case InitUciDevice:
		m.Reply <- c.handleInitUciDevice(m)
	case SetPosition:
		m.Reply <- c.handleSetPosition(m.MacAddress, m.Position)
	case CreateAnchor:
		m.Reply <- c.handleCreateAnchor(m)
	case DestroyAnchor:
		m.Reply <- c.handleDestroyAnchor(m.MacAddress)
	case GetState:
		m.Reply <- c.registry.snapshot()
	default:
		c.log.Warn("unhandled core command", zap.String("type", "unknown"))
	}
}

func (c *Core) handleDisconnect(handle int) {
	device, ok := c.registry.deviceByHandle(handle)
	if !ok {
		return
	}
	mac := device.MacAddress
	c.registry.removeDevice(handle)
	c.events.Publish(DeviceRemoved{Category: model.CategoryUCI, MacAddress: mac})
}

func (c *Core) handleStopRanging(m StopRanging) {
	device, ok := c.registry.deviceBySessionOwner(m.MacAddress, m.SessionID)
	if !ok {
		return
	}
	device.stopInbandRanging(m.SessionID)
}

func (c *Core) handleUciCommand(m UciCommand) {
	device, ok := c.registry.deviceByHandle(m.Handle)
	if !ok {
		return
	}

	cmd := m.Command
	var response []byte
	switch {
	case cmd.GroupID == uci.GroupIDCore && cmd.OpcodeID == uci.OpcodeDeviceReset:
		response = device.HandleDeviceReset()
	case cmd.GroupID == uci.GroupIDCore && cmd.OpcodeID == uci.OpcodeGetDeviceInfo:
		response = device.HandleGetDeviceInfo()
	case cmd.GroupID == uci.GroupIDSessionConfig && cmd.OpcodeID == uci.OpcodeSessionInit:
		response = device.HandleSessionInit(cmd.SessionID)
	case cmd.GroupID == uci.GroupIDSessionConfig && cmd.OpcodeID == uci.OpcodeSessionDeinit:
		response = device.HandleSessionDeinit(cmd.SessionID)
	case cmd.GroupID == uci.GroupIDSessionConfig && cmd.OpcodeID == uci.OpcodeSessionSetAppConfig:
		response = device.HandleSessionSetAppConfig(cmd.SessionID, cmd.AppConfig)
	case cmd.GroupID == uci.GroupIDSessionControl && cmd.OpcodeID == uci.OpcodeSessionStart:
		response = device.HandleSessionStart(cmd.SessionID, c.rangingTick(m.Handle, cmd.SessionID))
	case cmd.GroupID == uci.GroupIDSessionControl && cmd.OpcodeID == uci.OpcodeSessionStop:
		response = device.HandleSessionStop(cmd.SessionID)
	default:
		response = uci.BuildStatusResponse(cmd.GroupID, cmd.OpcodeID, uci.StatusRejected)
	}
	device.enqueue(response)
}

// rangingTick binds a session's periodic timer to a resubmission of
// Ranging back onto the core's own command channel, keeping every mutation
// of device/session state inside the single dispatch goroutine even though
// the timer itself fires from a separate goroutine.
func (c *Core) rangingTick(handle int, sessionID uint32) func() {
	return func() {
		select {
		case c.commands <- Ranging{Handle: handle, SessionID: sessionID}:
		default:
			c.log.Warn("dropped ranging tick, command channel full",
				zap.Int("handle", handle), zap.Uint32("session_id", sessionID))
		}
	}
}

func (c *Core) handleUciData(m UciData) {
	device, ok := c.registry.deviceByHandle(m.Handle)
	if !ok {
		return
	}
	device.enqueue(device.DispatchDataPath(m.Data))
}

func (c *Core) handleInitUciDevice(m InitUciDevice) error {
	device, ok := c.registry.deviceByMac(m.MacAddress)
	if !ok {
		return ErrDeviceNotFound{MacAddress: m.MacAddress}
	}
	device.Position = m.Position
	c.events.Publish(DeviceAdded{Category: model.CategoryUCI, MacAddress: m.MacAddress, Position: m.Position})
	return nil
}

// handleSetPosition updates a known participant's position and emits the
// full update_position event sequence: a DeviceUpdated for the moved
// participant, followed by a symmetric pair of NeighborUpdated events per
// remaining participant (devices before anchors), one computed from the
// mover's position and one computed from the peer's position back at the
// mover, since the two sides can disagree on azimuth/elevation even though
// distance is symmetric.
func (c *Core) handleSetPosition(mac model.MacAddress, position model.Position) error {
	category, ok := c.registry.categoryOf(mac)
	if !ok {
		return ErrDeviceNotFound{MacAddress: mac}
	}

	switch category {
	case model.CategoryUCI:
		device, _ := c.registry.deviceByMac(mac)
		device.Position = position
	case model.CategoryAnchor:
		anchor := c.registry.anchors[mac]
		anchor.Position = position
		c.registry.anchors[mac] = anchor
	}

	c.events.Publish(DeviceUpdated{Category: category, MacAddress: mac, Position: position})

	for _, peer := range c.registry.participants(mac) {
		localDistance, localAzimuth, localElevation := position.RangeAzimuthElevation(peer.Position)
		remoteDistance, remoteAzimuth, remoteElevation := peer.Position.RangeAzimuthElevation(position)

		c.events.Publish(NeighborUpdated{
			SourceCategory:        category,
			SourceMacAddress:      mac,
			DestinationCategory:   peer.Category,
			DestinationMacAddress: peer.MacAddress,
			Distance:              localDistance,
			Azimuth:               localAzimuth,
			Elevation:             localElevation,
		})
		c.events.Publish(NeighborUpdated{
			SourceCategory:        peer.Category,
			SourceMacAddress:      peer.MacAddress,
			DestinationCategory:   category,
			DestinationMacAddress: mac,
			Distance:              remoteDistance,
			Azimuth:               remoteAzimuth,
			Elevation:             remoteElevation,
		})
	}
	return nil
}

func (c *Core) handleCreateAnchor(m CreateAnchor) error {
	if _, ok := c.registry.categoryOf(m.MacAddress); ok {
		return ErrDeviceAlreadyExists{MacAddress: m.MacAddress}
	}
	c.registry.addAnchor(model.Anchor{MacAddress: m.MacAddress, Position: m.Position})
	c.events.Publish(DeviceAdded{Category: model.CategoryAnchor, MacAddress: m.MacAddress, Position: m.Position})
	return nil
}

func (c *Core) handleDestroyAnchor(mac model.MacAddress) error {
	if _, ok := c.registry.anchors[mac]; !ok {
		return ErrDeviceNotFound{MacAddress: mac}
	}
	c.registry.removeAnchor(mac)
	c.events.Publish(DeviceRemoved{Category: model.CategoryAnchor, MacAddress: mac})
	return nil
}

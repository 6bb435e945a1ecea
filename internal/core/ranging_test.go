package core

import (
	"testing"

	"go.uber.org/zap"

	"github.com/hasanawais/pica/internal/model"
	"github.com/hasanawais/pica/pkg/uci"
)

func newTestCore(t *testing.T) *Core {
	t.Helper()
	return NewCore(zap.NewNop())
}

func TestRunRangingEmitsMeasurementAgainstAnchor(t *testing.T) {
	c := newTestCore(t)
	sendQueue := make(chan []byte, 4)
	device := c.registry.addDevice(sendQueue)
	device.MacAddress = model.NewShortAddress([2]byte{1, 0})
	device.Position = model.Position{X: 0, Y: 0, Z: 0}

	anchorMac := model.NewShortAddress([2]byte{2, 0})
	c.registry.addAnchor(model.Anchor{MacAddress: anchorMac, Position: model.Position{X: 10, Y: 0, Z: 0}})

	session := NewSession(1)
	session.State = SessionStateActive
	controller := uci.RoleController
	session.AppConfig = AppConfig{
		Role:             controller,
		DestMacAddresses: []model.MacAddress{anchorMac},
		RangingDataNtf:   uci.RangingNtfEnable,
	}
	device.Sessions[1] = session

	c.runRanging(device.Handle, 1)

	select {
	case packet := <-sendQueue:
		cp, err := uci.ParseControl(packet)
		if err != nil {
			t.Fatalf("ParseControl: %v", err)
		}
		if cp.OpcodeID != uci.OpcodeRangeDataNtf {
			t.Errorf("opcode = %v, want OpcodeRangeDataNtf", cp.OpcodeID)
		}
	default:
		t.Fatal("expected a ranging notification on the send queue")
	}
	if session.SequenceNumber != 1 {
		t.Errorf("sequence number = %d, want 1", session.SequenceNumber)
	}
}

func TestRunRangingSuppressesNotificationWhenDisabled(t *testing.T) {
	c := newTestCore(t)
	sendQueue := make(chan []byte, 4)
	device := c.registry.addDevice(sendQueue)
	device.MacAddress = model.NewShortAddress([2]byte{1, 0})

	anchorMac := model.NewShortAddress([2]byte{2, 0})
	c.registry.addAnchor(model.Anchor{MacAddress: anchorMac, Position: model.Position{X: 10}})

	session := NewSession(1)
	session.State = SessionStateActive
	session.AppConfig = AppConfig{
		DestMacAddresses: []model.MacAddress{anchorMac},
		RangingDataNtf:   uci.RangingNtfDisable,
	}
	device.Sessions[1] = session

	c.runRanging(device.Handle, 1)

	select {
	case <-sendQueue:
		t.Fatal("expected no packet on the send queue when notifications are disabled")
	default:
	}
	if session.SequenceNumber != 0 {
		t.Errorf("sequence number should not advance when notifications are disabled, got %d", session.SequenceNumber)
	}
}

func TestRunRangingSkipsUnresolvablePeers(t *testing.T) {
	c := newTestCore(t)
	sendQueue := make(chan []byte, 4)
	device := c.registry.addDevice(sendQueue)

	unknown := model.NewShortAddress([2]byte{9, 9})
	session := NewSession(1)
	session.State = SessionStateActive
	session.AppConfig = AppConfig{DestMacAddresses: []model.MacAddress{unknown}}
	device.Sessions[1] = session

	c.runRanging(device.Handle, 1)

	if session.SequenceNumber != 0 {
		t.Errorf("sequence number should not advance with no resolvable peers, got %d", session.SequenceNumber)
	}
}

func TestRunRangingEmitsSymmetricMeasurementAgainstCompatiblePeerDevice(t *testing.T) {
	c := newTestCore(t)
	sendQueueA := make(chan []byte, 4)
	sendQueueB := make(chan []byte, 4)

	deviceA := c.registry.addDevice(sendQueueA)
	deviceA.MacAddress = model.NewShortAddress([2]byte{1, 0})
	deviceA.Position = model.Position{X: 0, Y: 0, Z: 0}

	deviceB := c.registry.addDevice(sendQueueB)
	deviceB.MacAddress = model.NewShortAddress([2]byte{2, 0})
	deviceB.Position = model.Position{X: 10, Y: 0, Z: 0}

	sessionA := NewSession(1)
	sessionA.State = SessionStateActive
	sessionA.AppConfig = AppConfig{
		Role:             uci.RoleController,
		ChannelNumber:    9,
		DestMacAddresses: []model.MacAddress{deviceB.MacAddress},
		RangingDataNtf:   uci.RangingNtfEnable,
	}
	deviceA.Sessions[1] = sessionA

	sessionB := NewSession(1)
	sessionB.State = SessionStateActive
	sessionB.AppConfig = AppConfig{Role: uci.RoleControlee, ChannelNumber: 9}
	deviceB.Sessions[1] = sessionB

	c.runRanging(deviceA.Handle, 1)

	select {
	case packet := <-sendQueueA:
		cp, err := uci.ParseControl(packet)
		if err != nil {
			t.Fatalf("ParseControl: %v", err)
		}
		if cp.OpcodeID != uci.OpcodeRangeDataNtf {
			t.Errorf("opcode = %v, want OpcodeRangeDataNtf", cp.OpcodeID)
		}
	default:
		t.Fatal("expected a ranging notification on the send queue")
	}
	if sessionA.SequenceNumber != 1 {
		t.Errorf("sequence number = %d, want 1", sessionA.SequenceNumber)
	}
}

func TestRunRangingSkipsPeerDeviceWithIncompatibleRole(t *testing.T) {
	c := newTestCore(t)
	sendQueueA := make(chan []byte, 4)
	sendQueueB := make(chan []byte, 4)

	deviceA := c.registry.addDevice(sendQueueA)
	deviceA.MacAddress = model.NewShortAddress([2]byte{1, 0})

	deviceB := c.registry.addDevice(sendQueueB)
	deviceB.MacAddress = model.NewShortAddress([2]byte{2, 0})

	sessionA := NewSession(1)
	sessionA.State = SessionStateActive
	sessionA.AppConfig = AppConfig{
		Role:             uci.RoleController,
		ChannelNumber:    9,
		DestMacAddresses: []model.MacAddress{deviceB.MacAddress},
	}
	deviceA.Sessions[1] = sessionA

	sessionB := NewSession(1)
	sessionB.State = SessionStateActive
	sessionB.AppConfig = AppConfig{Role: uci.RoleController, ChannelNumber: 9}
	deviceB.Sessions[1] = sessionB

	c.runRanging(deviceA.Handle, 1)

	if sessionA.SequenceNumber != 0 {
		t.Errorf("sequence number should not advance against an incompatible peer role, got %d", sessionA.SequenceNumber)
	}
}

func TestRunRangingSkipsPeerDeviceWithInactiveSession(t *testing.T) {
	c := newTestCore(t)
	sendQueueA := make(chan []byte, 4)
	sendQueueB := make(chan []byte, 4)

	deviceA := c.registry.addDevice(sendQueueA)
	deviceA.MacAddress = model.NewShortAddress([2]byte{1, 0})

	deviceB := c.registry.addDevice(sendQueueB)
	deviceB.MacAddress = model.NewShortAddress([2]byte{2, 0})

	sessionA := NewSession(1)
	sessionA.State = SessionStateActive
	sessionA.AppConfig = AppConfig{
		Role:             uci.RoleController,
		ChannelNumber:    9,
		DestMacAddresses: []model.MacAddress{deviceB.MacAddress},
	}
	deviceA.Sessions[1] = sessionA

	sessionB := NewSession(1)
	sessionB.State = SessionStateIdle
	sessionB.AppConfig = AppConfig{Role: uci.RoleControlee, ChannelNumber: 9}
	deviceB.Sessions[1] = sessionB

	c.runRanging(deviceA.Handle, 1)

	if sessionA.SequenceNumber != 0 {
		t.Errorf("sequence number should not advance against a peer session that isn't Active, got %d", sessionA.SequenceNumber)
	}
}

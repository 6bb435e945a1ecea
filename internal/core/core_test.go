package core

import (
	"context"
	"testing"
	"time"

	"github.com/hasanawais/pica/internal/model"
	"github.com/hasanawais/pica/pkg/uci"
)

func TestCoreConnectAssignsIncreasingHandles(t *testing.T) {
	c := newTestCore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	out := make(chan []byte, 1)
	reply := make(chan int, 1)
	c.Commands() <- Connect{Outbound: out, Reply: reply}
	first := <-reply
	c.Commands() <- Connect{Outbound: out, Reply: reply}
	second := <-reply

	if second != first+1 {
		t.Errorf("handles = %d, %d; want sequential", first, second)
	}
}

func TestCoreCreateAnchorThenDestroy(t *testing.T) {
	c := newTestCore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	mac := model.NewShortAddress([2]byte{5, 5})
	reply := make(chan error, 1)
	c.Commands() <- CreateAnchor{MacAddress: mac, Position: model.Position{}, Reply: reply}
	if err := <-reply; err != nil {
		t.Fatalf("CreateAnchor: %v", err)
	}

	c.Commands() <- CreateAnchor{MacAddress: mac, Position: model.Position{}, Reply: reply}
	if err := <-reply; err == nil {
		t.Fatalf("expected ErrDeviceAlreadyExists on duplicate anchor")
	}

	c.Commands() <- DestroyAnchor{MacAddress: mac, Reply: reply}
	if err := <-reply; err != nil {
		t.Fatalf("DestroyAnchor: %v", err)
	}
}

func TestCoreGetStateReflectsDevicesAndAnchors(t *testing.T) {
	c := newTestCore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	out := make(chan []byte, 1)
	connReply := make(chan int, 1)
	c.Commands() <- Connect{Outbound: out, Reply: connReply}
	<-connReply

	anchorMac := model.NewShortAddress([2]byte{7, 7})
	anchorReply := make(chan error, 1)
	c.Commands() <- CreateAnchor{MacAddress: anchorMac, Position: model.Position{}, Reply: anchorReply}
	<-anchorReply

	stateReply := make(chan []ParticipantState, 1)
	c.Commands() <- GetState{Reply: stateReply}
	state := <-stateReply

	if len(state) != 2 {
		t.Fatalf("got %d participants, want 2", len(state))
	}
}

func TestCoreUciCommandDeviceResetRoundTrip(t *testing.T) {
	c := newTestCore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	out := make(chan []byte, 1)
	connReply := make(chan int, 1)
	c.Commands() <- Connect{Outbound: out, Reply: connReply}
	handle := <-connReply

	c.Commands() <- UciCommand{Handle: handle, Command: uci.Command{GroupID: uci.GroupIDCore, OpcodeID: uci.OpcodeDeviceReset}}

	select {
	case packet := <-out:
		cp, err := uci.ParseControl(packet)
		if err != nil {
			t.Fatalf("ParseControl: %v", err)
		}
		if uci.Status(cp.Payload[0]) != uci.StatusOk {
			t.Errorf("status = %v, want StatusOk", cp.Payload[0])
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for DeviceReset response")
	}
}

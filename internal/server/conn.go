// Package server accepts host TCP connections, frames/deframes the UCI
// wire protocol on each one, and routes parsed commands into the Control
// Core.
package server

import (
	"errors"
	"io"
	"net"

	"go.uber.org/zap"

	"github.com/hasanawais/pica/internal/core"
	"github.com/hasanawais/pica/pkg/uci"
)

// outboundCapacity bounds how many packets may be queued for a connection
// before the core starts dropping them for that device: a slow host must
// not be able to stall every other device.
const outboundCapacity = 32

// conn owns one accepted host connection for its lifetime: a read loop
// that parses and forwards commands to the core, and a write loop that
// drains the core's responses and notifications back onto the wire.
type conn struct {
	nc       net.Conn
	core     *core.Core
	log      *zap.Logger
	capture  *fileCapture
	handle   int
	outbound chan<- []byte
}

func serveConn(nc net.Conn, c *core.Core, log *zap.Logger, captureDir string, captureOn bool) {
	defer nc.Close()

	outbound := make(chan []byte, outboundCapacity)
	reply := make(chan int, 1)
	c.Commands() <- core.Connect{Outbound: outbound, Reply: reply}
	handle := <-reply

	var capture *fileCapture
	if captureOn {
		cap, err := newFileCapture(captureDir, handle)
		if err != nil {
			log.Warn("capture disabled for connection", zap.Int("handle", handle), zap.Error(err))
		} else {
			capture = cap
		}
	}
	if capture != nil {
		defer capture.Close()
	}

	cn := &conn{nc: nc, core: c, log: log.With(zap.Int("handle", handle)), capture: capture, handle: handle, outbound: outbound}
	cn.log.Info("device connected", zap.String("remote", nc.RemoteAddr().String()))

	done := make(chan struct{})
	go cn.writeLoop(outbound, done)
	cn.readLoop()

	c.Commands() <- core.Disconnect{Handle: handle}
	close(outbound)
	<-done
	cn.log.Info("device disconnected")
}

func (cn *conn) writeLoop(outbound <-chan []byte, done chan<- struct{}) {
	defer close(done)
	var tap uci.Tap
	if cn.capture != nil {
		tap = cn.capture
	}
	writer := uci.NewPacketWriter(cn.nc, tap)
	for packet := range outbound {
		if err := writer.WritePacket(packet); err != nil {
			cn.log.Warn("write failed, closing connection", zap.Error(err))
			return
		}
	}
}

func (cn *conn) readLoop() {
	var tap uci.Tap
	if cn.capture != nil {
		tap = cn.capture
	}
	reader := uci.NewPacketReader(cn.nc, tap)

	for {
		packet, err := reader.ReadPacket()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				cn.log.Warn("read failed, closing connection", zap.Error(err))
			}
			return
		}
		cn.handlePacket(packet)
	}
}

func (cn *conn) handlePacket(packet []byte) {
	if len(packet) < uci.HeaderSize {
		return
	}
	// The top 3 bits of byte 0 carry the message type regardless of
	// control/data framing.
	if uci.MessageType(packet[0]>>5) == uci.MessageTypeData {
		data, err := uci.ParseData(packet)
		if err != nil {
			return
		}
		cn.core.Commands() <- core.UciData{Handle: cn.handle, Data: data}
		return
	}

	cp, err := uci.ParseControl(packet)
	if err != nil {
		// Responses and notifications that fail to parse are silently
		// dropped; only a malformed Command is worth answering, since the
		// host is waiting on a reply to it.
		if uci.MessageType(packet[0]>>5) == uci.MessageTypeCommand {
			cn.sendParseError(packet)
		}
		return
	}
	cmd, err := uci.ParseCommand(cp)
	if err != nil {
		// A Command with an unknown group or opcode, or a payload that
		// doesn't decode, gets the synthesized parse-error response; any
		// other message type is dropped without a response.
		if cp.MessageType == uci.MessageTypeCommand {
			cn.sendParseError(packet)
		}
		return
	}
	cn.core.Commands() <- core.UciCommand{Handle: cn.handle, Command: cmd}
}

// sendParseError answers a packet the codec couldn't parse without routing
// it through the core: no device or session state was touched, so there is
// nothing for the core to mutate in response. The response still goes out
// through the same outbound channel the write loop drains, so it can never
// interleave with a core-originated packet on the wire.
func (cn *conn) sendParseError(raw []byte) {
	resp, err := uci.BuildParseErrorResponse(raw)
	if err != nil {
		return
	}
	select {
	case cn.outbound <- resp:
	default:
		cn.log.Warn("dropped parse-error response, outbound queue full")
	}
}

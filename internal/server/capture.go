package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hasanawais/pica/pkg/uci"
)

// pcapngBlockHeader and friends implement the minimal subset of the
// pcapng format a packet-capture viewer needs: a Section Header Block, one
// Interface Description Block, and an Enhanced Packet Block per captured
// chunk. There is no pcapng writer anywhere in the reference pack, so this
// is a from-scratch, deliberately partial implementation of the format —
// only what this emulator's Rx/Tx taps need to produce a file Wireshark
// can open.
const (
	blockTypeSectionHeader = 0x0A0D0D0A
	blockTypeInterfaceDesc = 0x00000001
	blockTypeEnhancedPacket = 0x00000006
	byteOrderMagic          = 0x1A2B3C4D
	linkTypeUser0           = 147 // LINKTYPE_USER0, used for unregistered custom framing
)

// fileCapture writes one pcapng file per device connection, tapping every
// framed chunk written or read on its wire.
type fileCapture struct {
	mu   sync.Mutex
	file *os.File
}

// newFileCapture creates (or truncates) dir/device-<handle>.pcapng and
// writes its section header and interface description blocks.
func newFileCapture(dir string, handle int) (*fileCapture, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("server: create capture dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("device-%d.pcapng", handle))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("server: create capture file: %w", err)
	}
	c := &fileCapture{file: f}
	if err := c.writeSectionHeader(); err != nil {
		f.Close()
		return nil, err
	}
	if err := c.writeInterfaceDescription(); err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// Capture implements uci.Tap, appending one Enhanced Packet Block per
// chunk. Direction is not representable in plain pcapng without an
// interface per direction, so it is folded into the block's comment option
// instead of affecting the wire bytes.
func (c *fileCapture) Capture(dir uci.Direction, chunk []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.writeEnhancedPacket(dir, chunk)
}

func (c *fileCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file.Close()
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func (c *fileCapture) writeSectionHeader() error {
	body := append([]byte{}, le32(byteOrderMagic)...)
	body = append(body, 1, 0, 0, 0) // version major/minor
	body = append(body, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff) // section length unknown
	return c.writeBlock(blockTypeSectionHeader, body)
}

func (c *fileCapture) writeInterfaceDescription() error {
	body := append([]byte{}, byte(linkTypeUser0), byte(linkTypeUser0>>8), 0, 0)
	body = append(body, le32(0)...) // snap len, 0 = unlimited
	return c.writeBlock(blockTypeInterfaceDesc, body)
}

func (c *fileCapture) writeEnhancedPacket(dir uci.Direction, chunk []byte) error {
	ts := uint64(time.Now().UnixMicro())
	body := append([]byte{}, le32(0)...) // interface id
	body = append(body, le32(uint32(ts>>32))...)
	body = append(body, le32(uint32(ts))...)
	body = append(body, le32(uint32(len(chunk)))...)
	body = append(body, le32(uint32(len(chunk)))...)
	body = append(body, chunk...)
	for len(body)%4 != 0 {
		body = append(body, 0)
	}
	comment := []byte("rx")
	if dir == uci.DirectionTx {
		comment = []byte("tx")
	}
	body = append(body, 1, 0, byte(len(comment)), 0) // opt_comment
	body = append(body, comment...)
	for len(body)%4 != 0 {
		body = append(body, 0)
	}
	body = append(body, 0, 0, 0, 0) // opt_endofopt
	return c.writeBlock(blockTypeEnhancedPacket, body)
}

func (c *fileCapture) writeBlock(blockType uint32, body []byte) error {
	totalLen := uint32(4 + 4 + len(body) + 4)
	buf := append([]byte{}, le32(blockType)...)
	buf = append(buf, le32(totalLen)...)
	buf = append(buf, body...)
	buf = append(buf, le32(totalLen)...)
	_, err := c.file.Write(buf)
	return err
}

package uci

import (
	"bytes"
	"testing"
)

func TestPacketWriteReadRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewPacketWriter(buf, nil)
	reader := NewPacketReader(buf, nil)

	hdr := BuildControlHeader(MessageTypeCommand, GroupIDCore, OpcodeGetDeviceInfo, 3)
	packet := append(hdr[:], []byte("abc")...)

	if err := writer.WritePacket(packet); err != nil {
		t.Fatalf("WritePacket failed: %v", err)
	}

	got, err := reader.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if !bytes.Equal(got, packet) {
		t.Errorf("round trip mismatch: got %v, want %v", got, packet)
	}
}

func TestControlSegmentationBoundary(t *testing.T) {
	for _, size := range []int{255, 256} {
		buf := &bytes.Buffer{}
		writer := NewPacketWriter(buf, nil)
		reader := NewPacketReader(buf, nil)

		hdr := BuildControlHeader(MessageTypeCommand, GroupIDCore, OpcodeGetDeviceInfo, size)
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i)
		}
		packet := append(hdr[:], payload...)

		if err := writer.WritePacket(packet); err != nil {
			t.Fatalf("WritePacket(%d) failed: %v", size, err)
		}
		wire := append([]byte(nil), buf.Bytes()...)

		got, err := reader.ReadPacket()
		if err != nil {
			t.Fatalf("ReadPacket(%d) failed: %v", size, err)
		}
		if !bytes.Equal(got[HeaderSize:], payload) {
			t.Errorf("payload mismatch at size %d", size)
		}
		// 255 bytes must go out as one segment; 256 bytes must have
		// segmented into two wire writes (255 + 1, NotComplete then Complete).
		if size == 255 && len(wire) != HeaderSize+255 {
			t.Errorf("size 255: wire length = %d, want %d", len(wire), HeaderSize+255)
		}
		if size == 256 {
			if len(wire) != 2*HeaderSize+256 {
				t.Fatalf("size 256: wire length = %d, want %d", len(wire), 2*HeaderSize+256)
			}
			second := wire[HeaderSize+255:]
			if wire[0]&pbfMask == 0 || wire[3] != 255 || second[0]&pbfMask != 0 || second[3] != 1 {
				t.Errorf("size 256: segment headers % x and % x, want 255 NotComplete then 1 Complete", wire[:HeaderSize], second[:HeaderSize])
			}
		}
	}
}

func TestDataSegmentationBoundary(t *testing.T) {
	for _, size := range []int{1024, 1025} {
		buf := &bytes.Buffer{}
		writer := NewPacketWriter(buf, nil)
		reader := NewPacketReader(buf, nil)

		var hdr [HeaderSize]byte
		hdr[0] = byte(MessageTypeData) << 5
		payload := make([]byte, size)
		packet := append(hdr[:], payload...)

		if err := writer.WritePacket(packet); err != nil {
			t.Fatalf("WritePacket(%d) failed: %v", size, err)
		}

		// Data fragments return immediately: for a 1025-byte payload the
		// first ReadPacket call only sees the first 1024-byte fragment.
		got, err := reader.ReadPacket()
		if err != nil {
			t.Fatalf("ReadPacket(%d) failed: %v", size, err)
		}
		wantFirst := size
		if wantFirst > MaxDataPayload {
			wantFirst = MaxDataPayload
		}
		if len(got)-HeaderSize != wantFirst {
			t.Errorf("size %d: first fragment length = %d, want %d", size, len(got)-HeaderSize, wantFirst)
		}
	}
}

func TestReassembledPacketKeepsLastHeader(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewPacketWriter(buf, nil)
	reader := NewPacketReader(buf, nil)

	hdr := BuildControlHeader(MessageTypeCommand, GroupIDSessionConfig, OpcodeSessionInit, 300)
	payload := make([]byte, 300)
	packet := append(hdr[:], payload...)

	if err := writer.WritePacket(packet); err != nil {
		t.Fatalf("WritePacket failed: %v", err)
	}

	got, err := reader.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}

	h := decodeHeader(got)
	if h.messageType != MessageTypeCommand || GroupID(h.lowNibble) != GroupIDSessionConfig || h.secondByte&0x3f != OpcodeSessionInit {
		t.Errorf("reassembled header mismatch: %+v", h)
	}
	if h.pbf != Complete {
		t.Errorf("reassembled PBF = %v, want Complete", h.pbf)
	}
}

type recordingTap struct {
	chunks []struct {
		dir   Direction
		chunk []byte
	}
}

func (r *recordingTap) Capture(dir Direction, chunk []byte) {
	cp := append([]byte{}, chunk...)
	r.chunks = append(r.chunks, struct {
		dir   Direction
		chunk []byte
	}{dir, cp})
}

func TestTapObservesEachChunk(t *testing.T) {
	buf := &bytes.Buffer{}
	tap := &recordingTap{}
	writer := NewPacketWriter(buf, tap)
	reader := NewPacketReader(buf, tap)

	hdr := BuildControlHeader(MessageTypeCommand, GroupIDCore, OpcodeDeviceReset, 0)
	if err := writer.WritePacket(hdr[:]); err != nil {
		t.Fatalf("WritePacket failed: %v", err)
	}
	if _, err := reader.ReadPacket(); err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}

	if len(tap.chunks) != 2 {
		t.Fatalf("expected 2 tapped chunks (tx+rx), got %d", len(tap.chunks))
	}
	if tap.chunks[0].dir != DirectionTx {
		t.Errorf("first tapped chunk direction = %v, want Tx", tap.chunks[0].dir)
	}
	if tap.chunks[1].dir != DirectionRx {
		t.Errorf("second tapped chunk direction = %v, want Rx", tap.chunks[1].dir)
	}
}

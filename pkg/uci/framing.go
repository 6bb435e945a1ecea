package uci

import (
	"errors"
	"io"
)

// Direction tags a captured chunk as inbound (host->emulator) or outbound
// (emulator->host).
type Direction uint8

const (
	DirectionRx Direction = iota
	DirectionTx
)

// Tap receives a copy of every framed header+chunk, in wire order, before
// it is written to (or right after it is read from) the underlying
// stream. Implementations are expected to be fast and non-blocking; a
// capture sink is the canonical consumer.
type Tap interface {
	Capture(dir Direction, chunk []byte)
}

// ErrUnsupportedInterleave is returned when a data fragment arrives in
// the middle of a segmented control packet. Spec explicitly leaves the
// wire behavior of this case undefined; this implementation fails the
// connection rather than risk corrupting a later packet.
var ErrUnsupportedInterleave = errors.New("uci: data fragment interleaved with control segments")

// PacketReader reassembles complete logical UCI packets from a byte
// stream: it reads a 4-byte header, reads the payload length
// implied by the message type, and for control packets loops on PBF to
// reassemble a segmented packet, keeping only the last header.
//
// Shape follows a StreamFramer pattern: an io.Reader-backed struct with
// one ReadPacket method doing a small accumulation loop. The byte layout
// and reassembly rule are UCI's own.
type PacketReader struct {
	r   io.Reader
	tap Tap
}

// NewPacketReader wraps r. tap may be nil.
func NewPacketReader(r io.Reader, tap Tap) *PacketReader {
	return &PacketReader{r: r, tap: tap}
}

// ReadPacket returns one complete logical packet: a control packet is
// reassembled across as many PBF=NotComplete segments as needed; a data
// packet fragment is returned immediately, exactly as received, since the
// protocol requires per-fragment credit acknowledgement upstream.
func (p *PacketReader) ReadPacket() ([]byte, error) {
	var lastHeader [HeaderSize]byte
	var payload []byte
	haveHeader := false

	for {
		var hdr [HeaderSize]byte
		if _, err := io.ReadFull(p.r, hdr[:]); err != nil {
			return nil, err
		}

		h := decodeHeader(hdr[:])
		length := payloadLength(hdr[:], h.messageType)

		chunk := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(p.r, chunk); err != nil {
				return nil, err
			}
		}

		if p.tap != nil {
			full := make([]byte, 0, HeaderSize+length)
			full = append(full, hdr[:]...)
			full = append(full, chunk...)
			p.tap.Capture(DirectionRx, full)
		}

		if h.messageType == MessageTypeData {
			if haveHeader {
				return nil, ErrUnsupportedInterleave
			}
			return append(append([]byte{}, hdr[:]...), chunk...), nil
		}

		lastHeader = hdr
		haveHeader = true
		payload = append(payload, chunk...)

		if h.pbf == Complete {
			return append(append([]byte{}, lastHeader[:]...), payload...), nil
		}
		// PBF == NotComplete: loop, discarding this segment's header and
		// keeping only the last one, per the UCI rule that MT/GID/OID are
		// identical across segments of one logical packet.
	}
}

// PacketWriter segments and writes complete logical UCI packets to a
// stream: control payloads are chunked at 255 bytes, data
// payloads at 1024, with the PBF and length fields of each chunk's header
// rebuilt accordingly; all other header fields are preserved from the
// caller's header.
type PacketWriter struct {
	w   io.Writer
	tap Tap
}

// NewPacketWriter wraps w. tap may be nil.
func NewPacketWriter(w io.Writer, tap Tap) *PacketWriter {
	return &PacketWriter{w: w, tap: tap}
}

// WritePacket accepts one complete logical packet (4-byte header followed
// by its full payload) and emits it as one or more segments.
func (p *PacketWriter) WritePacket(packet []byte) error {
	if len(packet) < HeaderSize {
		return errors.New("uci: packet shorter than header")
	}

	var hdr [HeaderSize]byte
	copy(hdr[:], packet[:HeaderSize])
	payload := packet[HeaderSize:]

	h := decodeHeader(hdr[:])
	maxChunk := MaxControlPayload
	if h.messageType == MessageTypeData {
		maxChunk = MaxDataPayload
	}

	for {
		chunkLen := len(payload)
		if chunkLen > maxChunk {
			chunkLen = maxChunk
		}
		chunk := payload[:chunkLen]
		payload = payload[chunkLen:]

		pbf := Complete
		if len(payload) > 0 {
			pbf = NotComplete
		}
		setPBF(hdr[:], pbf)
		if h.messageType == MessageTypeData {
			setDataLength(hdr[:], chunkLen)
		} else {
			setControlLength(hdr[:], chunkLen)
		}

		if p.tap != nil {
			full := make([]byte, 0, HeaderSize+chunkLen)
			full = append(full, hdr[:]...)
			full = append(full, chunk...)
			p.tap.Capture(DirectionTx, full)
		}

		if _, err := p.w.Write(hdr[:]); err != nil {
			return err
		}
		if chunkLen > 0 {
			if _, err := p.w.Write(chunk); err != nil {
				return err
			}
		}

		if len(payload) == 0 {
			return nil
		}
	}
}

package uci

import (
	"errors"
	"fmt"

	"github.com/hasanawais/pica/internal/model"
)

// ErrMalformed is returned by the parse functions when a packet is too
// short or internally inconsistent to decode.
var ErrMalformed = errors.New("uci: malformed packet")

// ControlPacket is a parsed control-message header plus its fully
// reassembled payload.
type ControlPacket struct {
	MessageType MessageType
	GroupID     GroupID
	OpcodeID    uint8
	Payload     []byte
}

// ParseControl decodes a reassembled control packet (not Data).
func ParseControl(b []byte) (ControlPacket, error) {
	if len(b) < HeaderSize {
		return ControlPacket{}, ErrMalformed
	}
	h := decodeHeader(b)
	if h.messageType == MessageTypeData {
		return ControlPacket{}, ErrMalformed
	}
	payload := b[HeaderSize:]
	// A packet reassembled from several segments keeps only the last
	// segment's header, so its length field covers that last segment alone.
	declared := payloadLength(b, h.messageType)
	if declared > len(payload) {
		return ControlPacket{}, ErrMalformed
	}
	return ControlPacket{
		MessageType: h.messageType,
		GroupID:     GroupID(h.lowNibble),
		OpcodeID:    h.secondByte & 0x3f,
		Payload:     payload,
	}, nil
}

// DataPacket is a parsed data-message fragment.
type DataPacket struct {
	SubType uint8
	Payload []byte
}

// ParseData decodes a single data fragment.
func ParseData(b []byte) (DataPacket, error) {
	if len(b) < HeaderSize {
		return DataPacket{}, ErrMalformed
	}
	h := decodeHeader(b)
	if h.messageType != MessageTypeData {
		return DataPacket{}, ErrMalformed
	}
	payload := b[HeaderSize:]
	if payloadLength(b, h.messageType) != len(payload) {
		return DataPacket{}, ErrMalformed
	}
	return DataPacket{SubType: h.lowNibble, Payload: payload}, nil
}

// Command is a decoded host command, narrowed from a ControlPacket.
// Exactly one of the typed fields below is meaningful, selected by
// (GroupID, OpcodeID) — a closed dispatch, not an open variant registry.
type Command struct {
	GroupID   GroupID
	OpcodeID  uint8
	SessionID uint32

	// SessionInit
	SessionType uint8

	// SessionSetAppConfig
	AppConfig AppConfigParams
}

// AppConfigParams is the decoded, partially-populated form of a
// SessionSetAppConfig payload. Nil/false fields mean "not present in this
// call" so the caller can merge onto existing session configuration.
type AppConfigParams struct {
	DeviceMacAddress    *model.MacAddress
	DestMacAddresses    []model.MacAddress
	HasDestMacAddresses bool
	RangingIntervalMs   *uint32
	Role                *Role
	RangingDataNtf      *RangingNtfConfig
	ChannelNumber       *uint8
}

// ParseCommand narrows a control packet of MessageTypeCommand into a
// Command. Returns ErrMalformed if the group/opcode is unrecognized or
// the payload doesn't decode — callers use IsKnownGroupID separately to
// build the parse-error response, since that response must distinguish
// unknown-group from unknown-opcode.
func ParseCommand(cp ControlPacket) (Command, error) {
	if cp.MessageType != MessageTypeCommand {
		return Command{}, ErrMalformed
	}

	switch cp.GroupID {
	case GroupIDCore:
		switch cp.OpcodeID {
		case OpcodeDeviceReset, OpcodeGetDeviceInfo:
			return Command{GroupID: cp.GroupID, OpcodeID: cp.OpcodeID}, nil
		}
	case GroupIDSessionConfig:
		switch cp.OpcodeID {
		case OpcodeSessionInit:
			if len(cp.Payload) < 5 {
				return Command{}, ErrMalformed
			}
			return Command{
				GroupID:     cp.GroupID,
				OpcodeID:    cp.OpcodeID,
				SessionID:   decodeU32(cp.Payload[0:4]),
				SessionType: cp.Payload[4],
			}, nil
		case OpcodeSessionDeinit:
			if len(cp.Payload) < 4 {
				return Command{}, ErrMalformed
			}
			return Command{GroupID: cp.GroupID, OpcodeID: cp.OpcodeID, SessionID: decodeU32(cp.Payload[0:4])}, nil
		case OpcodeSessionSetAppConfig:
			return parseSetAppConfig(cp)
		}
	case GroupIDSessionControl:
		switch cp.OpcodeID {
		case OpcodeSessionStart, OpcodeSessionStop:
			if len(cp.Payload) < 4 {
				return Command{}, ErrMalformed
			}
			return Command{GroupID: cp.GroupID, OpcodeID: cp.OpcodeID, SessionID: decodeU32(cp.Payload[0:4])}, nil
		}
	}
	return Command{}, ErrMalformed
}

func parseSetAppConfig(cp ControlPacket) (Command, error) {
	if len(cp.Payload) < 5 {
		return Command{}, ErrMalformed
	}
	sessionID := decodeU32(cp.Payload[0:4])
	count := int(cp.Payload[4])
	pos := 5
	params := AppConfigParams{}

	for i := 0; i < count; i++ {
		if pos+2 > len(cp.Payload) {
			return Command{}, ErrMalformed
		}
		key := cp.Payload[pos]
		length := int(cp.Payload[pos+1])
		pos += 2
		if pos+length > len(cp.Payload) {
			return Command{}, ErrMalformed
		}
		value := cp.Payload[pos : pos+length]
		pos += length

		switch key {
		case ConfigKeyDeviceMacAddress:
			mac, err := decodeMac(value)
			if err != nil {
				return Command{}, err
			}
			params.DeviceMacAddress = &mac
		case ConfigKeyDestMacAddresses:
			macs, err := decodeMacList(value)
			if err != nil {
				return Command{}, err
			}
			params.DestMacAddresses = macs
			params.HasDestMacAddresses = true
		case ConfigKeyRangingIntervalMs:
			if length != 4 {
				return Command{}, ErrMalformed
			}
			v := decodeU32(value)
			params.RangingIntervalMs = &v
		case ConfigKeyRole:
			if length != 1 {
				return Command{}, ErrMalformed
			}
			v := Role(value[0])
			params.Role = &v
		case ConfigKeyRangingDataNtf:
			if length != 1 {
				return Command{}, ErrMalformed
			}
			v := RangingNtfConfig(value[0])
			params.RangingDataNtf = &v
		case ConfigKeyChannelNumber:
			if length != 1 {
				return Command{}, ErrMalformed
			}
			v := value[0]
			params.ChannelNumber = &v
		default:
			return Command{}, ErrMalformed
		}
	}

	return Command{GroupID: cp.GroupID, OpcodeID: cp.OpcodeID, SessionID: sessionID, AppConfig: params}, nil
}

func decodeMac(b []byte) (model.MacAddress, error) {
	switch len(b) {
	case 2:
		return model.NewShortAddress([2]byte{b[0], b[1]}), nil
	case 8:
		var full [8]byte
		copy(full[:], b)
		return model.NewExtendedAddress(full), nil
	default:
		return model.MacAddress{}, ErrMalformed
	}
}

func decodeMacList(b []byte) ([]model.MacAddress, error) {
	if len(b) == 0 {
		return nil, nil
	}
	count := int(b[0])
	pos := 1
	macs := make([]model.MacAddress, 0, count)
	for i := 0; i < count; i++ {
		if pos+1 > len(b) {
			return nil, ErrMalformed
		}
		macLen := int(b[pos])
		pos++
		if pos+macLen > len(b) {
			return nil, ErrMalformed
		}
		mac, err := decodeMac(b[pos : pos+macLen])
		if err != nil {
			return nil, err
		}
		macs = append(macs, mac)
		pos += macLen
	}
	return macs, nil
}

func decodeU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func encodeU32(v uint32) [4]byte {
	return [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// BuildStatusResponse builds a generic {status} response for a command.
func BuildStatusResponse(gid GroupID, opcodeID uint8, status Status) []byte {
	payload := []byte{byte(status)}
	hdr := BuildControlHeader(MessageTypeResponse, gid, opcodeID, len(payload))
	return append(hdr[:], payload...)
}

// DeviceInfo is the read-only payload of a GetDeviceInfo response.
type DeviceInfo struct {
	UciVersion uint16
	MacAddress model.MacAddress
}

// BuildGetDeviceInfoResponse builds the GetDeviceInfo response packet.
func BuildGetDeviceInfoResponse(status Status, info DeviceInfo) []byte {
	payload := []byte{byte(status), byte(info.UciVersion), byte(info.UciVersion >> 8), byte(info.MacAddress.Len)}
	payload = append(payload, info.MacAddress.Bytes[:info.MacAddress.Len]...)
	hdr := BuildControlHeader(MessageTypeResponse, GroupIDCore, OpcodeGetDeviceInfo, len(payload))
	return append(hdr[:], payload...)
}

// Measurement is one peer's symmetric ranging result.
type Measurement struct {
	MacAddress               model.MacAddress
	Status                   Status
	NLOS                     uint8
	Distance                 uint16
	AoaAzimuth               int16
	AoaElevation              int8
	AoaDestinationAzimuth    int16
	AoaDestinationElevation  int8
	AoaAzimuthFOM            uint8
	AoaElevationFOM          uint8
	AoaDestinationAzimuthFOM uint8
	AoaDestinationElevationFOM uint8
	SlotIndex                uint8
	RSSI                     uint8
}

// BuildShortMacTwoWaySessionInfoNtf builds a ranging data notification
// carrying zero or more short-mac measurements.
func BuildShortMacTwoWaySessionInfoNtf(sequenceNumber, sessionID uint32, measurements []Measurement) []byte {
	payload := make([]byte, 0, 11+len(measurements)*18)
	seq := encodeU32(sequenceNumber)
	sid := encodeU32(sessionID)
	payload = append(payload, seq[:]...)
	payload = append(payload, sid[:]...)
	payload = append(payload, 0, 0) // rcr_indicator, current_ranging_interval: hardcoded to 0
	payload = append(payload, byte(len(measurements)))
	for _, m := range measurements {
		payload = append(payload, m.MacAddress.Bytes[0], m.MacAddress.Bytes[1])
		payload = append(payload, byte(m.Status))
		payload = append(payload, m.NLOS)
		payload = append(payload, byte(m.Distance), byte(m.Distance>>8))
		payload = append(payload, byte(m.AoaAzimuth), byte(m.AoaAzimuth>>8))
		payload = append(payload, m.AoaAzimuthFOM)
		payload = append(payload, byte(m.AoaElevation))
		payload = append(payload, m.AoaElevationFOM)
		payload = append(payload, byte(m.AoaDestinationAzimuth), byte(m.AoaDestinationAzimuth>>8))
		payload = append(payload, m.AoaDestinationAzimuthFOM)
		payload = append(payload, byte(m.AoaDestinationElevation))
		payload = append(payload, m.AoaDestinationElevationFOM)
		payload = append(payload, m.SlotIndex)
		payload = append(payload, m.RSSI)
	}
	hdr := BuildControlHeader(MessageTypeNotification, GroupIDSessionControl, OpcodeRangeDataNtf, len(payload))
	return append(hdr[:], payload...)
}

// BuildSessionControlNotification builds the per-data-fragment credit
// acknowledgement notification.
func BuildSessionControlNotification(sessionID uint32, status Status) []byte {
	sid := encodeU32(sessionID)
	payload := append(append([]byte{}, sid[:]...), byte(status))
	hdr := BuildControlHeader(MessageTypeNotification, GroupIDSessionControl, OpcodeSessionControlNotification, len(payload))
	return append(hdr[:], payload...)
}

// BuildParseErrorResponse synthesizes the 5-byte response to a control
// command that failed to parse, bit-exact: byte0 is
// (Response<<5)|gid, byte1 is oid&0x3f, bytes 2..3 are the length (0,1),
// byte4 is the status (UnknownGid if the group id is not recognized,
// UnknownOid otherwise — malformed commands with a valid group are not
// differentiated from unknown opcodes, by design).
func BuildParseErrorResponse(raw []byte) ([]byte, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("uci: packet too short to report a parse error: %w", ErrMalformed)
	}
	groupID := raw[0] & 0x0f
	opcodeID := raw[1] & 0x3f

	status := StatusUnknownOid
	if !IsKnownGroupID(groupID) {
		status = StatusUnknownGid
	}

	return []byte{
		byte(MessageTypeResponse)<<5 | groupID,
		opcodeID,
		0, 1,
		byte(status),
	}, nil
}

package uci

import (
	"testing"

	"github.com/hasanawais/pica/internal/model"
)

func TestParseErrorResponseUnknownGid(t *testing.T) {
	raw := []byte{byte(MessageTypeCommand)<<5 | 0x0f, 0x2a, 0, 0}
	resp, err := BuildParseErrorResponse(raw)
	if err != nil {
		t.Fatalf("BuildParseErrorResponse failed: %v", err)
	}
	want := []byte{byte(MessageTypeResponse)<<5 | 0x0f, 0x2a, 0, 1, byte(StatusUnknownGid)}
	if string(resp) != string(want) {
		t.Errorf("got %v, want %v", resp, want)
	}
}

func TestParseErrorResponseUnknownOid(t *testing.T) {
	raw := []byte{byte(MessageTypeCommand)<<5 | byte(GroupIDCore), 0x3f, 0, 0}
	resp, err := BuildParseErrorResponse(raw)
	if err != nil {
		t.Fatalf("BuildParseErrorResponse failed: %v", err)
	}
	if Status(resp[4]) != StatusUnknownOid {
		t.Errorf("status = %v, want StatusUnknownOid", resp[4])
	}
}

func TestParseCommandSessionInit(t *testing.T) {
	sid := encodeU32(7)
	payload := append(sid[:], 0x01)
	hdr := BuildControlHeader(MessageTypeCommand, GroupIDSessionConfig, OpcodeSessionInit, len(payload))
	cp, err := ParseControl(append(hdr[:], payload...))
	if err != nil {
		t.Fatalf("ParseControl failed: %v", err)
	}
	cmd, err := ParseCommand(cp)
	if err != nil {
		t.Fatalf("ParseCommand failed: %v", err)
	}
	if cmd.SessionID != 7 || cmd.SessionType != 0x01 {
		t.Errorf("got %+v", cmd)
	}
}

func TestParseCommandSetAppConfig(t *testing.T) {
	mac := model.NewShortAddress([2]byte{0x34, 0x12})

	var payload []byte
	sid := encodeU32(7)
	payload = append(payload, sid[:]...)
	payload = append(payload, 2) // two params

	// device_mac_address
	payload = append(payload, ConfigKeyDeviceMacAddress, 2, mac.Bytes[0], mac.Bytes[1])
	// ranging interval
	interval := encodeU32(200)
	payload = append(payload, ConfigKeyRangingIntervalMs, 4)
	payload = append(payload, interval[:]...)

	hdr := BuildControlHeader(MessageTypeCommand, GroupIDSessionConfig, OpcodeSessionSetAppConfig, len(payload))
	cp, err := ParseControl(append(hdr[:], payload...))
	if err != nil {
		t.Fatalf("ParseControl failed: %v", err)
	}
	cmd, err := ParseCommand(cp)
	if err != nil {
		t.Fatalf("ParseCommand failed: %v", err)
	}
	if cmd.AppConfig.DeviceMacAddress == nil || !cmd.AppConfig.DeviceMacAddress.Equal(mac) {
		t.Errorf("device mac = %+v, want %v", cmd.AppConfig.DeviceMacAddress, mac)
	}
	if cmd.AppConfig.RangingIntervalMs == nil || *cmd.AppConfig.RangingIntervalMs != 200 {
		t.Errorf("ranging interval = %+v, want 200", cmd.AppConfig.RangingIntervalMs)
	}
}

func TestBuildShortMacTwoWaySessionInfoNtfRoundTrips(t *testing.T) {
	mac := model.NewShortAddress([2]byte{0xaa, 0xbb})
	measurements := []Measurement{{MacAddress: mac, Status: StatusOk, Distance: 100, RSSI: 0xff}}
	packet := BuildShortMacTwoWaySessionInfoNtf(3, 7, measurements)

	cp, err := ParseControl(packet)
	if err != nil {
		t.Fatalf("ParseControl failed: %v", err)
	}
	if cp.MessageType != MessageTypeNotification || cp.GroupID != GroupIDSessionControl || cp.OpcodeID != OpcodeRangeDataNtf {
		t.Fatalf("unexpected header: %+v", cp)
	}
	if len(cp.Payload) < 11 {
		t.Fatalf("payload too short: %d", len(cp.Payload))
	}
	if count := cp.Payload[10]; count != 1 {
		t.Errorf("measurement count = %d, want 1", count)
	}
}

package uci

// Status is the UCI response/notification status code.
type Status uint8

const (
	StatusOk Status = iota
	StatusRejected
	StatusUnknownGid
	StatusUnknownOid
	StatusSessionDuplicate
	StatusMaxSessionsExceeded
	StatusSessionNotExist
	StatusInvalidParam
	StatusSessionNotConfigured
)

// Role is a session participant's ranging role.
type Role uint8

const (
	RoleController Role = iota
	RoleControlee
)

// RangingNtfConfig controls whether ranging notifications are emitted.
type RangingNtfConfig uint8

const (
	RangingNtfEnable RangingNtfConfig = iota
	RangingNtfDisable
)

// Opcodes, scoped per group. Closed set: this emulator's dispatcher is a
// sum type over (GroupID, OpcodeID), never an open plugin registry.
const (
	OpcodeDeviceReset    uint8 = 0x00
	OpcodeGetDeviceInfo  uint8 = 0x01
)

const (
	OpcodeSessionInit         uint8 = 0x00
	OpcodeSessionDeinit       uint8 = 0x01
	OpcodeSessionSetAppConfig uint8 = 0x02
)

const (
	OpcodeSessionStart               uint8 = 0x00
	OpcodeSessionStop                uint8 = 0x01
	OpcodeRangeDataNtf               uint8 = 0x02
	OpcodeSessionControlNotification uint8 = 0x03
)

// App config parameter keys, encoded in SessionSetAppConfig's TLV list.
const (
	ConfigKeyDeviceMacAddress  uint8 = 0x01
	ConfigKeyDestMacAddresses  uint8 = 0x02
	ConfigKeyRangingIntervalMs uint8 = 0x03
	ConfigKeyRole              uint8 = 0x04
	ConfigKeyRangingDataNtf    uint8 = 0x05
	ConfigKeyChannelNumber     uint8 = 0x06
)

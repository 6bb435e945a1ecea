// Package model holds the data types shared by the ranging engine and the
// control core: addresses, positions, and the two participant categories.
package model

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressKind distinguishes a short (2-byte) from an extended (8-byte) UCI
// MAC address.
type AddressKind uint8

const (
	// ShortAddress is a 2-byte 802.15.4 short address.
	ShortAddress AddressKind = iota
	// ExtendedAddress is an 8-byte 802.15.4 extended address.
	ExtendedAddress
)

// MacAddress is a tagged short or extended UCI address. Equality is by
// kind and bytes, never by numeric value alone, so a short address never
// collides with an extended one that happens to share low bytes.
type MacAddress struct {
	Kind  AddressKind
	Bytes [8]byte
	Len   int
}

// NewShortAddress builds a 2-byte MacAddress from its little-endian value.
func NewShortAddress(b [2]byte) MacAddress {
	m := MacAddress{Kind: ShortAddress, Len: 2}
	copy(m.Bytes[:], b[:])
	return m
}

// NewExtendedAddress builds an 8-byte MacAddress from its little-endian
// value.
func NewExtendedAddress(b [8]byte) MacAddress {
	return MacAddress{Kind: ExtendedAddress, Bytes: b, Len: 8}
}

// FromHandle derives a deterministic short address from a device handle,
// used before the host has assigned the device a real MAC address.
func FromHandle(handle int) MacAddress {
	return NewShortAddress([2]byte{byte(handle), byte(handle >> 8)})
}

// IsExtended reports whether this is an 8-byte address.
func (m MacAddress) IsExtended() bool {
	return m.Kind == ExtendedAddress
}

// Equal reports whether two addresses share a kind and byte value.
func (m MacAddress) Equal(other MacAddress) bool {
	return m.Kind == other.Kind && m.Bytes == other.Bytes
}

// ParseMacAddress parses colon-separated hex such as "aa:bb" (short) or
// "aa:bb:cc:dd:ee:ff:00:11" (extended), most significant byte first — the
// format configuration files use to name anchors.
func ParseMacAddress(s string) (MacAddress, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 8 {
		return MacAddress{}, fmt.Errorf("model: mac address %q must have 2 or 8 octets", s)
	}
	raw := make([]byte, len(parts))
	for i, p := range parts {
		b, err := hex.DecodeString(p)
		if err != nil || len(b) != 1 {
			return MacAddress{}, fmt.Errorf("model: invalid octet %q in mac address %q", p, s)
		}
		raw[len(parts)-1-i] = b[0]
	}
	if len(raw) == 2 {
		return NewShortAddress([2]byte{raw[0], raw[1]}), nil
	}
	var full [8]byte
	copy(full[:], raw)
	return NewExtendedAddress(full), nil
}

// String renders the address as colon-separated hex, most significant
// byte first.
func (m MacAddress) String() string {
	parts := make([]string, m.Len)
	for i := 0; i < m.Len; i++ {
		parts[m.Len-1-i] = fmt.Sprintf("%02x", m.Bytes[i])
	}
	return strings.Join(parts, ":")
}

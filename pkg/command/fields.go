package command

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"unicode/utf8"
)

// Validation errors.
var (
	// ErrCapacityExceeded indicates a value does not fit its field capacity.
	ErrCapacityExceeded = errors.New("field capacity exceeded")

	// ErrInvalidField indicates a value that can never be encoded.
	ErrInvalidField = errors.New("invalid field value")
)

// OtaID identifies an OTA update job.
type OtaID [IDSize]byte

// SHA256 is a SHA-256 digest.
type SHA256 [SHA256Size]byte

// HardwareID is the unique hardware id of a device. It is textual in origin
// but carried as exactly UHWIDSize raw bytes.
type HardwareID [UHWIDSize]byte

// MACAddress is a BLE MAC address. The all-zero address means "none".
type MACAddress [BLEMacAddressSize]byte

// IsZero returns true if all bytes of the address are zero.
func (m MACAddress) IsZero() bool {
	return m == MACAddress{}
}

// String returns the address in colon notation.
func (m MACAddress) String() string {
	parts := make([]string, len(m))
	for i, b := range m {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":")
}

// Token is a provisioning JWT. It is not NUL-terminated on the wire.
type Token []byte

// Payload carries opaque property data (last values).
type Payload []byte

// MarshalText implements encoding.TextMarshaler.
func (v OtaID) MarshalText() ([]byte, error) { return hexText(v[:]), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *OtaID) UnmarshalText(b []byte) error { return parseHexFixed("ota id", b, v[:]) }

// MarshalText implements encoding.TextMarshaler.
func (v SHA256) MarshalText() ([]byte, error) { return hexText(v[:]), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *SHA256) UnmarshalText(b []byte) error { return parseHexFixed("sha256", b, v[:]) }

// MarshalText implements encoding.TextMarshaler.
func (v HardwareID) MarshalText() ([]byte, error) { return hexText(v[:]), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *HardwareID) UnmarshalText(b []byte) error { return parseHexFixed("hardware id", b, v[:]) }

// MarshalText implements encoding.TextMarshaler.
func (m MACAddress) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText accepts both "aa:bb:cc:dd:ee:ff" and plain hex.
func (m *MACAddress) UnmarshalText(b []byte) error {
	return parseHexFixed("mac address", []byte(strings.ReplaceAll(string(b), ":", "")), m[:])
}

// MarshalText implements encoding.TextMarshaler.
func (t Token) MarshalText() ([]byte, error) { return []byte(t), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Token) UnmarshalText(b []byte) error {
	*t = append(Token(nil), b...)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Payload) MarshalText() ([]byte, error) { return hexText(p), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Payload) UnmarshalText(b []byte) error {
	decoded, err := hex.DecodeString(string(b))
	if err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	*p = decoded
	return nil
}

func hexText(b []byte) []byte {
	out := make([]byte, hex.EncodedLen(len(b)))
	hex.Encode(out, b)
	return out
}

func parseHexFixed(field string, text []byte, dst []byte) error {
	if hex.DecodedLen(len(text)) != len(dst) {
		return fmt.Errorf("%s: want %d hex bytes, got %d characters", field, len(dst), len(text))
	}
	if _, err := hex.Decode(dst, text); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// IPType distinguishes IPv4 from IPv6 addresses.
type IPType uint8

const (
	IPv4 IPType = 0
	IPv6 IPType = 1
)

// String returns the address family name.
func (t IPType) String() string {
	switch t {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	default:
		return "unknown"
	}
}

// IPAddress is a provisioned IP address. IPv4 addresses use the first four
// bytes of Addr. The all-zero address means "not configured" and has no
// family: whatever its Type, it is sent as an empty field and reads back as
// the zero IPAddress, whose Type is IPv4.
type IPAddress struct {
	Type IPType
	Addr [MaxIPSize]byte
}

// IPFrom converts a netip.Addr. IPv4-mapped IPv6 addresses stay IPv6. The
// unspecified addresses 0.0.0.0 and :: both give the zero IPAddress.
func IPFrom(addr netip.Addr) IPAddress {
	var a IPAddress
	if addr.IsUnspecified() {
		return a
	}
	if addr.Is4() {
		b := addr.As4()
		copy(a.Addr[:], b[:])
		return a
	}
	a.Type = IPv6
	a.Addr = addr.As16()
	return a
}

// MarshalText renders the address in its usual notation; an unset address
// renders as the empty string.
func (a IPAddress) MarshalText() ([]byte, error) {
	if a.IsZero() {
		return []byte{}, nil
	}
	if a.Type == IPv4 {
		return []byte(netip.AddrFrom4([IPv4Size]byte(a.Addr[:IPv4Size])).String()), nil
	}
	return []byte(netip.AddrFrom16(a.Addr).String()), nil
}

// UnmarshalText parses an IPv4 or IPv6 address; empty text clears it.
func (a *IPAddress) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*a = IPAddress{}
		return nil
	}
	addr, err := netip.ParseAddr(string(b))
	if err != nil {
		return fmt.Errorf("ip address: %w", err)
	}
	*a = IPFrom(addr)
	return nil
}

// IsZero returns true if the address is not configured.
func (a IPAddress) IsZero() bool {
	return a.Addr == [MaxIPSize]byte{}
}

// Bytes returns the significant address bytes (4 or 16).
func (a IPAddress) Bytes() []byte {
	if a.Type == IPv4 {
		return a.Addr[:IPv4Size]
	}
	return a.Addr[:]
}

func (a IPAddress) validate(field string) error {
	switch a.Type {
	case IPv4:
		for _, b := range a.Addr[IPv4Size:] {
			if b != 0 {
				return fmt.Errorf("%w: %s: ipv4 address uses more than %d bytes", ErrInvalidField, field, IPv4Size)
			}
		}
	case IPv6:
	default:
		return fmt.Errorf("%w: %s: unknown address type %d", ErrInvalidField, field, a.Type)
	}
	return nil
}

// checkText validates a text field against its capacity.
func checkText(field, value string, capacity int) error {
	if len(value) > TextLimit(capacity) {
		return fmt.Errorf("%w: %s is %d bytes, max %d", ErrCapacityExceeded, field, len(value), TextLimit(capacity))
	}
	if strings.IndexByte(value, 0) >= 0 {
		return fmt.Errorf("%w: %s contains a NUL byte", ErrInvalidField, field)
	}
	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidField, field)
	}
	return nil
}

// checkBytes validates a raw payload against its capacity.
func checkBytes(field string, value []byte, capacity int) error {
	if len(value) > capacity {
		return fmt.Errorf("%w: %s is %d bytes, max %d", ErrCapacityExceeded, field, len(value), capacity)
	}
	return nil
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

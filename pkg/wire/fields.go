package wire

import (
	"fmt"
	"math"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
)

// CBOR major types.
const (
	majorUint   byte = 0
	majorNegInt byte = 1
	majorBytes  byte = 2
	majorText   byte = 3
	majorArray  byte = 4
	majorTag    byte = 6
	majorSimple byte = 7
)

// fieldWriter collects the array items of one message in write order.
type fieldWriter struct {
	items []any
}

func (w *fieldWriter) text(s string)    { w.items = append(w.items, s) }
func (w *fieldWriter) bytes(b []byte)   { w.items = append(w.items, b) }
func (w *fieldWriter) uint(v uint64)    { w.items = append(w.items, v) }
func (w *fieldWriter) int(v int64)      { w.items = append(w.items, v) }
func (w *fieldWriter) simple(v uint8)   { w.items = append(w.items, cbor.SimpleValue(v)) }
func (w *fieldWriter) uints(v []uint32) { w.items = append(w.items, v) }

// optional writes b, or a zero-length byte string when zero is set.
func (w *fieldWriter) optional(b []byte, zero bool) {
	if zero {
		w.bytes([]byte{})
		return
	}
	w.bytes(b)
}

func (w *fieldWriter) cellular(p *command.CellularParams) {
	w.text(p.PIN)
	w.text(p.APN)
	w.text(p.Login)
	w.text(p.Pass)
}

func (w *fieldWriter) ip(a command.IPAddress) {
	w.optional(a.Bytes(), a.IsZero())
}

// fieldReader reads array items in order with strict kind checks. The first
// failure is kept and later reads become no-ops.
type fieldReader struct {
	fields []cbor.RawMessage
	pos    int
	err    error
}

// fail records an error for the item read last.
func (r *fieldReader) fail(field, format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: field %d (%s): %s", ErrMalformedMessage, max(r.pos-1, 0), field, fmt.Sprintf(format, args...))
	}
}

// next returns the next item if it has one of the wanted major types.
func (r *fieldReader) next(field string, majors ...byte) (cbor.RawMessage, bool) {
	if r.err != nil {
		return nil, false
	}
	if r.pos >= len(r.fields) {
		r.pos++
		r.fail(field, "missing")
		return nil, false
	}
	raw := r.fields[r.pos]
	r.pos++
	if len(raw) == 0 {
		r.fail(field, "empty item")
		return nil, false
	}
	major := raw[0] >> 5
	for _, m := range majors {
		if major == m {
			return raw, true
		}
	}
	r.fail(field, "unexpected major type %d", major)
	return nil, false
}

func (r *fieldReader) unmarshal(field string, raw cbor.RawMessage, v any) bool {
	if err := decMode.Unmarshal(raw, v); err != nil {
		r.fail(field, "%v", err)
		return false
	}
	return true
}

// text reads a text string that fits a field of the given capacity.
func (r *fieldReader) text(field string, capacity int) string {
	raw, ok := r.next(field, majorText)
	if !ok {
		return ""
	}
	var s string
	if !r.unmarshal(field, raw, &s) {
		return ""
	}
	if len(s) > command.TextLimit(capacity) {
		r.fail(field, "%d bytes exceeds %d", len(s), command.TextLimit(capacity))
		return ""
	}
	if strings.IndexByte(s, 0) >= 0 {
		r.fail(field, "contains a NUL byte")
		return ""
	}
	return s
}

func (r *fieldReader) byteString(field string) ([]byte, bool) {
	raw, ok := r.next(field, majorBytes)
	if !ok {
		return nil, false
	}
	var b []byte
	if !r.unmarshal(field, raw, &b) {
		return nil, false
	}
	return b, true
}

// fixed reads a byte string of exactly len(dst) bytes.
func (r *fieldReader) fixed(field string, dst []byte) {
	b, ok := r.byteString(field)
	if !ok {
		return
	}
	if len(b) != len(dst) {
		r.fail(field, "want %d bytes, got %d", len(dst), len(b))
		return
	}
	copy(dst, b)
}

// optional reads a byte string of exactly len(dst) bytes, or a zero-length
// one that leaves dst all-zero.
func (r *fieldReader) optional(field string, dst []byte) {
	b, ok := r.byteString(field)
	if !ok {
		return
	}
	switch len(b) {
	case 0:
		clear(dst)
	case len(dst):
		copy(dst, b)
	default:
		r.fail(field, "want 0 or %d bytes, got %d", len(dst), len(b))
	}
}

// variable reads a byte string of at most limit bytes.
func (r *fieldReader) variable(field string, limit int) []byte {
	b, ok := r.byteString(field)
	if !ok {
		return nil
	}
	if limit >= 0 && len(b) > limit {
		r.fail(field, "%d bytes exceeds %d", len(b), limit)
		return nil
	}
	return b
}

func (r *fieldReader) ip(field string) command.IPAddress {
	b, ok := r.byteString(field)
	if !ok {
		return command.IPAddress{}
	}
	var a command.IPAddress
	switch len(b) {
	case 0:
	case command.IPv4Size:
		copy(a.Addr[:], b)
	case command.MaxIPSize:
		a.Type = command.IPv6
		copy(a.Addr[:], b)
	default:
		r.fail(field, "invalid address length %d", len(b))
	}
	return a
}

// uint reads an unsigned integer that fits in bits.
func (r *fieldReader) uint(field string, bits int) uint64 {
	raw, ok := r.next(field, majorUint)
	if !ok {
		return 0
	}
	var v uint64
	if !r.unmarshal(field, raw, &v) {
		return 0
	}
	if bits < 64 && v >= 1<<bits {
		r.fail(field, "%d overflows uint%d", v, bits)
		return 0
	}
	return v
}

// int reads a signed integer that fits in bits.
func (r *fieldReader) int(field string, bits int) int64 {
	raw, ok := r.next(field, majorUint, majorNegInt)
	if !ok {
		return 0
	}
	var v int64
	if !r.unmarshal(field, raw, &v) {
		return 0
	}
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if bits < 64 {
		lo, hi = -(1 << (bits - 1)), 1<<(bits-1)-1
	}
	if v < lo || v > hi {
		r.fail(field, "%d overflows int%d", v, bits)
		return 0
	}
	return v
}

// simple reads a CBOR simple value. Floats are not simple values.
func (r *fieldReader) simple(field string) uint8 {
	raw, ok := r.next(field, majorSimple)
	if !ok {
		return 0
	}
	ai := raw[0] & 0x1f
	switch {
	case ai < 24:
		return ai
	case ai == 24 && len(raw) == 2:
		return raw[1]
	default:
		r.fail(field, "not a simple value")
		return 0
	}
}

// uints reads an array of at most len(dst) uint32 values; missing trailing
// entries stay zero.
func (r *fieldReader) uints(field string, dst []uint32) {
	raw, ok := r.next(field, majorArray)
	if !ok {
		return
	}
	var vs []uint64
	if !r.unmarshal(field, raw, &vs) {
		return
	}
	if len(vs) > len(dst) {
		r.fail(field, "%d entries exceeds %d", len(vs), len(dst))
		return
	}
	clear(dst)
	for i, v := range vs {
		if v > math.MaxUint32 {
			r.fail(field, "%d overflows uint32", v)
			return
		}
		dst[i] = uint32(v)
	}
}

func (r *fieldReader) cellular(p *command.CellularParams) {
	p.PIN = r.text("pin", command.PINSize)
	p.APN = r.text("apn", command.APNSize)
	p.Login = r.text("login", command.LoginSize)
	p.Pass = r.text("pass", command.PassSize)
}

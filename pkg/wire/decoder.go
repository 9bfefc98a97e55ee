package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
)

// Decoder decodes command messages. Every call returns a fresh message; a
// Decoder holds no per-call state and may be shared.
type Decoder struct {
	tags  *TagTable
	rules map[command.ID]rule
}

// NewDecoder creates a decoder for the given tag table.
func NewDecoder(tags *TagTable) *Decoder {
	return &Decoder{tags: tags, rules: defaultRules}
}

// Decode parses one message. The tag is resolved before anything else is
// read, so ErrUnknownTag never depends on the remaining bytes. A field
// array declaring more than MaxArrayItems items is ErrMalformedMessage,
// including a Wi-Fi network list whose excess pairs would otherwise be
// ignored.
func (d *Decoder) Decode(data []byte) (command.Message, error) {
	tag, n, err := readTagHead(data)
	if err != nil {
		return nil, err
	}
	id, err := d.tags.IDFor(tag)
	if err != nil {
		return nil, err
	}
	r, ok := d.rules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no decoding rule", ErrUnsupportedMessage, id)
	}

	items, err := readArray(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	if !r.accepts(len(items)) {
		return nil, fmt.Errorf("%w: %s: unexpected field count %d", ErrMalformedMessage, id, len(items))
	}

	msg, err := command.New(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownTag, err)
	}
	fr := fieldReader{fields: items}
	r.read(&fr, msg)
	if fr.err != nil {
		return nil, fmt.Errorf("%s: %w", id, fr.err)
	}
	return msg, nil
}

// Peek returns the tag and command of an encoded message without decoding
// its fields.
func (d *Decoder) Peek(data []byte) (Tag, command.ID, error) {
	tag, _, err := readTagHead(data)
	if err != nil {
		return 0, command.UnknownCmdID, err
	}
	id, err := d.tags.IDFor(tag)
	return tag, id, err
}

// readTagHead parses the leading tag head and returns the tag number and
// the head length.
func readTagHead(data []byte) (Tag, int, error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("%w: empty buffer", ErrMalformedMessage)
	}
	if major := data[0] >> 5; major != majorTag {
		return 0, 0, fmt.Errorf("%w: leading item has major type %d, want tag", ErrMalformedMessage, major)
	}
	tag, n, err := readHeadArg(data)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: tag head: %w", ErrMalformedMessage, err)
	}
	return Tag(tag), n, nil
}

// readHeadArg returns the argument of the item head at data[0] and the head
// length. Indefinite lengths and reserved values are errors.
func readHeadArg(data []byte) (uint64, int, error) {
	ai := data[0] & 0x1f
	var width int
	switch {
	case ai < 24:
		return uint64(ai), 1, nil
	case ai == 24:
		width = 1
	case ai == 25:
		width = 2
	case ai == 26:
		width = 4
	case ai == 27:
		width = 8
	default:
		return 0, 0, fmt.Errorf("invalid head 0x%02x", data[0])
	}
	if len(data) < 1+width {
		return 0, 0, errors.New("truncated head")
	}
	arg := data[1 : 1+width]
	switch width {
	case 1:
		return uint64(arg[0]), 2, nil
	case 2:
		return uint64(binary.BigEndian.Uint16(arg)), 3, nil
	case 4:
		return uint64(binary.BigEndian.Uint32(arg)), 5, nil
	default:
		return binary.BigEndian.Uint64(arg), 9, nil
	}
}

// readArray decodes the tag content as a definite-length array of raw items
// with no trailing bytes. The declared count is checked against
// MaxArrayItems before any item is read.
func readArray(content []byte) ([]cbor.RawMessage, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: missing field array", ErrMalformedMessage)
	}
	if major := content[0] >> 5; major != majorArray {
		return nil, fmt.Errorf("%w: content has major type %d, want array", ErrMalformedMessage, major)
	}
	if content[0]&0x1f == 31 {
		return nil, fmt.Errorf("%w: indefinite-length array", ErrMalformedMessage)
	}
	count, _, err := readHeadArg(content)
	if err != nil {
		return nil, fmt.Errorf("%w: array head: %w", ErrMalformedMessage, err)
	}
	if count > MaxArrayItems {
		return nil, fmt.Errorf("%w: array declares %d items, limit %d", ErrMalformedMessage, count, MaxArrayItems)
	}
	var items []cbor.RawMessage
	if err := decMode.Unmarshal(content, &items); err != nil {
		var extra *cbor.ExtraneousDataError
		if errors.As(err, &extra) {
			return nil, fmt.Errorf("%w: trailing bytes after field array", ErrMalformedMessage)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return items, nil
}

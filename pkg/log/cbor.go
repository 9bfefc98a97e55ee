package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// MaxFrameCapture is the number of frame bytes kept in a FrameEvent.
const MaxFrameCapture = 256

// logEncMode is the CBOR encoder mode for log events.
var logEncMode cbor.EncMode

// logDecMode is the CBOR decoder mode for log events.
var logDecMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano, // Nanosecond precision
	}
	logEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create log CBOR encoder mode: %v", err))
	}

	// Lenient so that captures from newer versions stay readable.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	logDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create log CBOR decoder mode: %v", err))
	}
}

// EncodeEvent encodes an Event to CBOR bytes using integer keys for compactness.
func EncodeEvent(event Event) ([]byte, error) {
	return logEncMode.Marshal(event)
}

// DecodeEvent decodes CBOR bytes into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := logDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

func newEventEncoder(w io.Writer) *cbor.Encoder {
	return logEncMode.NewEncoder(w)
}

func newEventDecoder(r io.Reader) *cbor.Decoder {
	return logDecMode.NewDecoder(r)
}

// CaptureFrame builds a FrameEvent for a frame of size bytes with the given
// payload, keeping at most MaxFrameCapture bytes.
func CaptureFrame(size int, payload []byte) *FrameEvent {
	ev := &FrameEvent{Size: size}
	if len(payload) > MaxFrameCapture {
		ev.Data = append([]byte(nil), payload[:MaxFrameCapture]...)
		ev.Truncated = true
		return ev
	}
	ev.Data = append([]byte(nil), payload...)
	return ev
}

package wire

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
)

// encMode is the CBOR encoder mode for command messages.
// Configured for deterministic, definite-length output.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for command fields.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsEmpty, // empty payloads are h''
		ShortestFloat: cbor.ShortestFloatNone,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Strict: the firmware never emits indefinite lengths.
	decOpts := cbor.DecOptions{
		IndefLength:       cbor.IndefLengthForbidden,
		MaxArrayElements:  MaxArrayItems,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

var (
	defaultEncoder = NewEncoder(DefaultTagTable())
	defaultDecoder = NewDecoder(DefaultTagTable())
)

// Marshal encodes msg with the default tag table into a new buffer.
func Marshal(msg command.Message) ([]byte, error) {
	return defaultEncoder.Marshal(msg)
}

// Encode encodes msg with the default tag table into buf.
func Encode(msg command.Message, buf []byte) (int, error) {
	return defaultEncoder.Encode(msg, buf)
}

// Decode decodes one message with the default tag table.
func Decode(data []byte) (command.Message, error) {
	return defaultDecoder.Decode(data)
}

// Equal compares two messages by their wire encoding.
func Equal(a, b command.Message) bool {
	dataA, errA := Marshal(a)
	dataB, errB := Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(dataA, dataB)
}

// Clone creates a deep copy of msg by re-encoding it.
func Clone(msg command.Message) (command.Message, error) {
	data, err := Marshal(msg)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

package wire

import (
	"errors"
	"fmt"
)

// Codec errors. Use errors.Is to classify; StatusOf maps them to a Status.
var (
	// ErrEncode is the generic encode failure.
	ErrEncode = errors.New("encode failed")

	// ErrBufferTooSmall indicates the destination buffer cannot hold the
	// encoded message. Wraps ErrEncode.
	ErrBufferTooSmall = fmt.Errorf("%w: buffer too small", ErrEncode)

	// ErrArityMismatch indicates the rule table declared a different array
	// count than the number of fields it wrote. Wraps ErrEncode.
	ErrArityMismatch = fmt.Errorf("%w: declared and written field count differ", ErrEncode)

	// ErrUnsupportedMessage indicates a command ID without a wire encoding.
	ErrUnsupportedMessage = errors.New("message not supported")

	// ErrUnknownTag indicates a tag that does not map to any command.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrMalformedMessage indicates input that does not match the expected
	// structure of its command.
	ErrMalformedMessage = errors.New("malformed message")
)

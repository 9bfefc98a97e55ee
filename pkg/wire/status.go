package wire

import "errors"

// Status is the outcome of an encode or decode call.
type Status uint8

const (
	// StatusComplete indicates the message was fully encoded or decoded.
	StatusComplete Status = iota

	// StatusError indicates an encode failure (buffer or structure).
	StatusError

	// StatusMessageNotSupported indicates a command without a wire encoding.
	StatusMessageNotSupported

	// StatusUnknownTag indicates a tag that maps to no command.
	StatusUnknownTag

	// StatusMalformedMessage indicates input that does not match its command.
	StatusMalformedMessage
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "COMPLETE"
	case StatusError:
		return "ERROR"
	case StatusMessageNotSupported:
		return "MESSAGE_NOT_SUPPORTED"
	case StatusUnknownTag:
		return "UNKNOWN_TAG"
	case StatusMalformedMessage:
		return "MALFORMED_MESSAGE"
	default:
		return "UNKNOWN"
	}
}

// StatusOf classifies an error returned by an Encoder or Decoder.
// A nil error is StatusComplete.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusComplete
	case errors.Is(err, ErrUnsupportedMessage):
		return StatusMessageNotSupported
	case errors.Is(err, ErrUnknownTag):
		return StatusUnknownTag
	case errors.Is(err, ErrMalformedMessage):
		return StatusMalformedMessage
	default:
		return StatusError
	}
}

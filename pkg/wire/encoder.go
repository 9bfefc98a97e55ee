package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
)

// encodeState is a step of the encoder state machine.
type encodeState uint8

const (
	stateEncodeTag encodeState = iota
	stateEncodeArray
	stateEncodeParam
	stateCloseArray
	stateComplete
	stateMessageNotSupported
	stateError
)

// Encoder encodes command messages. An Encoder holds no per-call state and
// may be shared.
type Encoder struct {
	tags  *TagTable
	rules map[command.ID]rule
}

// NewEncoder creates an encoder for the given tag table.
func NewEncoder(tags *TagTable) *Encoder {
	return &Encoder{tags: tags, rules: defaultRules}
}

// encodeRun carries one message through the state machine.
type encodeRun struct {
	msg      command.Message
	tag      Tag
	rule     rule
	declared int
	w        fieldWriter
	out      io.Writer
	err      error
}

// bufferWriter fills a caller-owned buffer and refuses writes that do not
// fit.
type bufferWriter struct {
	buf  []byte
	n    int
	need int
}

func (b *bufferWriter) Write(p []byte) (int, error) {
	if len(p) > len(b.buf)-b.n {
		b.need = b.n + len(p)
		return 0, ErrBufferTooSmall
	}
	b.n += copy(b.buf[b.n:], p)
	return len(p), nil
}

// Encode writes msg into buf and returns the number of bytes written. The
// encoding is written straight into buf; nothing is written when encoding
// fails or buf is too small.
func (e *Encoder) Encode(msg command.Message, buf []byte) (int, error) {
	out := bufferWriter{buf: buf}
	if err := e.encode(msg, &out); err != nil {
		if errors.Is(err, ErrBufferTooSmall) {
			return 0, fmt.Errorf("%w: %s needs %d bytes, have %d", ErrBufferTooSmall, msg.ID(), out.need, len(buf))
		}
		return 0, err
	}
	return out.n, nil
}

// Marshal encodes msg into a new buffer.
func (e *Encoder) Marshal(msg command.Message) ([]byte, error) {
	var out bytes.Buffer
	if err := e.encode(msg, &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (e *Encoder) encode(msg command.Message, out io.Writer) error {
	if msg == nil {
		return fmt.Errorf("%w: nil message", ErrEncode)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, msg.ID(), err)
	}

	run := encodeRun{msg: msg, out: out}
	state := stateEncodeTag
	for {
		switch state {
		case stateEncodeTag:
			state = e.encodeTag(&run)
		case stateEncodeArray:
			run.declared = run.rule.arity(msg)
			run.w.items = make([]any, 0, run.declared)
			state = stateEncodeParam
		case stateEncodeParam:
			run.rule.write(&run.w, msg)
			state = stateCloseArray
		case stateCloseArray:
			state = closeArray(&run)
		case stateComplete:
			return nil
		default:
			return run.err
		}
	}
}

func (e *Encoder) encodeTag(run *encodeRun) encodeState {
	tag, err := e.tags.TagFor(run.msg.ID())
	if err != nil {
		run.err = err
		return stateMessageNotSupported
	}
	r, ok := e.rules[run.msg.ID()]
	if !ok {
		run.err = fmt.Errorf("%w: %s has no encoding rule", ErrUnsupportedMessage, run.msg.ID())
		return stateMessageNotSupported
	}
	run.tag, run.rule = tag, r
	return stateEncodeArray
}

func closeArray(run *encodeRun) encodeState {
	if written := len(run.w.items); written != run.declared {
		run.err = fmt.Errorf("%w: %s declared %d, wrote %d", ErrArityMismatch, run.msg.ID(), run.declared, written)
		return stateError
	}
	// The cbor encoder writes the finished item to out in a single Write.
	err := encMode.NewEncoder(run.out).Encode(cbor.Tag{Number: uint64(run.tag), Content: run.w.items})
	if errors.Is(err, ErrBufferTooSmall) {
		run.err = err
		return stateError
	}
	if err != nil {
		run.err = fmt.Errorf("%w: %s: %w", ErrEncode, run.msg.ID(), err)
		return stateError
	}
	return stateComplete
}

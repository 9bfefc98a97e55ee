package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/dispatch"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/log"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

// Stream states reported in StateChangeEvents.
const (
	StateOpen   = "OPEN"
	StateClosed = "CLOSED"
)

// ErrNoRouter is returned by Serve on a stream without a router.
var ErrNoRouter = errors.New("stream has no router")

// Stream carries commands over a byte stream: one encoded command per
// frame. Send may be called concurrently with Receive or Serve.
type Stream struct {
	id       string
	remote   string
	framer   *Framer
	closer   io.Closer
	enc      *wire.Encoder
	dec      *wire.Decoder
	router   *dispatch.Router
	logger   log.Logger
	observer Observer

	maxFrameSize uint32
	tags         *wire.TagTable

	sendMu  sync.Mutex
	sendBuf []byte

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Stream.
type Option func(*Stream)

// WithLogger sets the protocol logger.
func WithLogger(l log.Logger) Option {
	return func(s *Stream) { s.logger = l }
}

// WithObserver sets the codec observer.
func WithObserver(o Observer) Option {
	return func(s *Stream) { s.observer = o }
}

// WithRouter sets the router used by Serve.
func WithRouter(r *dispatch.Router) Option {
	return func(s *Stream) { s.router = r }
}

// WithMaxFrameSize limits the payload size of received and sent frames.
func WithMaxFrameSize(n uint32) Option {
	return func(s *Stream) { s.maxFrameSize = n }
}

// WithTagTable replaces the default tag table.
func WithTagTable(t *wire.TagTable) Option {
	return func(s *Stream) { s.tags = t }
}

// WithConnectionID replaces the generated connection id.
func WithConnectionID(id string) Option {
	return func(s *Stream) { s.id = id }
}

// NewStream creates a stream over rw. If rw is an io.Closer, Close and a
// cancelled Serve close it.
func NewStream(rw io.ReadWriter, opts ...Option) *Stream {
	s := &Stream{
		id:       uuid.NewString(),
		logger:   log.NoopLogger{},
		observer: nopObserver{},
		tags:     wire.DefaultTagTable(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NoopLogger{}
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.maxFrameSize == 0 {
		s.maxFrameSize = DefaultMaxFrameSize
	}
	// LastValuesUpdate payloads are bounded by the frame limit only.
	s.sendBuf = make([]byte, s.maxFrameSize)

	s.framer = NewFramer(rw, s.maxFrameSize)
	s.framer.SetLogger(s.logger, s.id)
	s.enc = wire.NewEncoder(s.tags)
	s.dec = wire.NewDecoder(s.tags)
	if c, ok := rw.(io.Closer); ok {
		s.closer = c
	}
	if a, ok := rw.(interface{ RemoteAddr() net.Addr }); ok && a.RemoteAddr() != nil {
		s.remote = a.RemoteAddr().String()
	}

	s.logState("", StateOpen, "")
	return s
}

// ID returns the connection id.
func (s *Stream) ID() string {
	return s.id
}

// RemoteAddr returns the peer address, or "" if unknown.
func (s *Stream) RemoteAddr() string {
	return s.remote
}

// Send encodes msg and writes it as one frame. Nothing is written if
// encoding fails.
func (s *Stream) Send(msg command.Message) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	n, err := s.enc.Encode(msg, s.sendBuf)
	id := command.UnknownCmdID
	if msg != nil {
		id = msg.ID()
	}
	tag, _ := s.tags.TagFor(id)
	s.observer.ObserveEncode(id, n, wire.StatusOf(err))
	if err != nil {
		s.logCodecError(log.DirectionOut, "encode", err)
		return err
	}

	if err := s.framer.WriteFrame(s.sendBuf[:n]); err != nil {
		s.logError(log.LayerTransport, log.DirectionOut, "write", err)
		return err
	}
	s.logMessage(log.DirectionOut, id, tag, n, wire.StatusComplete)
	return nil
}

// Receive reads one frame and decodes it. Codec errors wrap the wire
// sentinels; the stream stays usable after them.
func (s *Stream) Receive() (command.Message, error) {
	data, err := s.framer.ReadFrame()
	if err != nil {
		return nil, err
	}

	msg, err := s.dec.Decode(data)
	if err != nil {
		tag, id, _ := s.dec.Peek(data)
		s.observer.ObserveDecode(id, len(data), wire.StatusOf(err))
		s.logMessage(log.DirectionIn, id, tag, len(data), wire.StatusOf(err))
		s.logCodecError(log.DirectionIn, "decode", err)
		return nil, err
	}

	tag, _ := s.tags.TagFor(msg.ID())
	s.observer.ObserveDecode(msg.ID(), len(data), wire.StatusComplete)
	s.logMessage(log.DirectionIn, msg.ID(), tag, len(data), wire.StatusComplete)
	return msg, nil
}

// Serve receives commands and dispatches them until the peer closes the
// stream, a transport error occurs or ctx is done. Frames that fail to
// decode and handler errors are logged and skipped. A clean end of stream
// returns nil.
func (s *Stream) Serve(ctx context.Context) error {
	if s.router == nil {
		return ErrNoRouter
	}

	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	for {
		msg, err := s.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, wire.ErrUnknownTag) || errors.Is(err, wire.ErrMalformedMessage) {
				continue
			}
			if errors.Is(err, io.EOF) {
				s.shutdown("eof")
				return nil
			}
			return fmt.Errorf("stream %s: %w", s.id, err)
		}

		start := time.Now()
		err = s.router.Dispatch(ctx, msg)
		took := time.Since(start)
		s.observer.ObserveDispatch(msg.ID(), took, err)
		if err != nil {
			s.logError(log.LayerDispatch, log.DirectionIn, "dispatch "+msg.ID().String(), err)
			continue
		}
		tag, _ := s.tags.TagFor(msg.ID())
		s.logDispatched(msg.ID(), tag, took)
	}
}

// Close closes the underlying connection if it is closable.
// It is safe to call Close multiple times.
func (s *Stream) Close() error {
	return s.shutdown("closed")
}

func (s *Stream) shutdown(reason string) error {
	s.closeOnce.Do(func() {
		if s.closer != nil {
			s.closeErr = s.closer.Close()
		}
		s.logState(StateOpen, StateClosed, reason)
	})
	return s.closeErr
}

func (s *Stream) event(direction log.Direction, layer log.Layer, category log.Category) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.id,
		Direction:    direction,
		Layer:        layer,
		Category:     category,
		RemoteAddr:   s.remote,
	}
}

func (s *Stream) logMessage(direction log.Direction, id command.ID, tag wire.Tag, size int, status wire.Status) {
	ev := s.event(direction, log.LayerWire, log.CategoryMessage)
	ev.Message = &log.MessageEvent{CommandID: id, Tag: tag, Size: size, Status: status}
	s.logger.Log(ev)
}

func (s *Stream) logDispatched(id command.ID, tag wire.Tag, took time.Duration) {
	ev := s.event(log.DirectionIn, log.LayerDispatch, log.CategoryMessage)
	ev.Message = &log.MessageEvent{CommandID: id, Tag: tag, Status: wire.StatusComplete, ProcessingTime: &took}
	s.logger.Log(ev)
}

func (s *Stream) logCodecError(direction log.Direction, op string, err error) {
	status := wire.StatusOf(err)
	ev := s.event(direction, log.LayerWire, log.CategoryError)
	ev.Error = &log.ErrorEventData{Layer: log.LayerWire, Message: err.Error(), Status: &status, Context: op}
	s.logger.Log(ev)
}

func (s *Stream) logError(layer log.Layer, direction log.Direction, op string, err error) {
	ev := s.event(direction, layer, log.CategoryError)
	ev.Error = &log.ErrorEventData{Layer: layer, Message: err.Error(), Context: op}
	s.logger.Log(ev)
}

func (s *Stream) logState(from, to, reason string) {
	ev := s.event(log.DirectionIn, log.LayerTransport, log.CategoryState)
	ev.StateChange = &log.StateChangeEvent{OldState: from, NewState: to, Reason: reason}
	s.logger.Log(ev)
}

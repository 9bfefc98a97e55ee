package transport

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/dispatch"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/log"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

type observation struct {
	op     string
	id     command.ID
	status wire.Status
	err    error
}

type recordingObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (o *recordingObserver) add(ob observation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.obs = append(o.obs, ob)
}

func (o *recordingObserver) ObserveEncode(id command.ID, _ int, status wire.Status) {
	o.add(observation{op: "encode", id: id, status: status})
}

func (o *recordingObserver) ObserveDecode(id command.ID, _ int, status wire.Status) {
	o.add(observation{op: "decode", id: id, status: status})
}

func (o *recordingObserver) ObserveDispatch(id command.ID, _ time.Duration, err error) {
	o.add(observation{op: "dispatch", id: id, err: err})
}

func (o *recordingObserver) all() []observation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]observation(nil), o.obs...)
}

// capturingLogger records protocol events.
type capturingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *capturingLogger) Log(event log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *capturingLogger) Events() []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]log.Event(nil), l.events...)
}

func TestStreamSendReceive(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf)

	sent := &command.ThingUpdate{ThingID: "thing-1"}
	require.NoError(t, s.Send(sent))

	got, err := s.Receive()
	require.NoError(t, err)
	assert.True(t, wire.Equal(sent, got), "got %#v", got)
}

func TestStreamSendLargeLastValues(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	payload := bytes.Repeat([]byte{0xa5}, 1024)
	sender := NewStream(a)
	receiver := NewStream(b)

	errc := make(chan error, 1)
	go func() { errc <- sender.Send(&command.LastValuesUpdate{LastValues: payload}) }()

	got, err := receiver.Receive()
	require.NoError(t, err)
	require.NoError(t, <-errc)
	assert.Equal(t, command.Payload(payload), got.(*command.LastValuesUpdate).LastValues)
}

func TestStreamSendRespectsFrameLimit(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf, WithMaxFrameSize(512))

	err := s.Send(&command.LastValuesUpdate{LastValues: make(command.Payload, 600)})
	assert.ErrorIs(t, err, wire.ErrBufferTooSmall)
	assert.Zero(t, buf.Len())

	require.NoError(t, s.Send(&command.LastValuesUpdate{LastValues: make(command.Payload, 400)}))
	assert.NotZero(t, buf.Len())
}

func TestStreamSendInvalidWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	logger := &capturingLogger{}
	obs := &recordingObserver{}
	s := NewStream(&buf, WithLogger(logger), WithObserver(obs))

	err := s.Send(&command.ThingBegin{ThingID: strings.Repeat("x", command.ThingIDSize)})
	require.ErrorIs(t, err, wire.ErrEncode)
	assert.Zero(t, buf.Len())

	require.Len(t, obs.all(), 1)
	assert.Equal(t, wire.StatusError, obs.all()[0].status)

	var codecErrors int
	for _, e := range logger.Events() {
		if e.Category == log.CategoryError && e.Error != nil && e.Error.Context == "encode" {
			codecErrors++
		}
	}
	assert.Equal(t, 1, codecErrors)
}

func TestStreamSendLocalOnlyCommand(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf)

	err := s.Send(&command.DeviceAttached{})
	assert.ErrorIs(t, err, wire.ErrUnsupportedMessage)
	assert.Zero(t, buf.Len())
}

func TestStreamReceiveKeepsGoingAfterBadFrame(t *testing.T) {
	var buf bytes.Buffer
	obs := &recordingObserver{}
	s := NewStream(&buf, WithObserver(obs))

	require.NoError(t, s.framer.WriteFrame([]byte{0xff}))
	require.NoError(t, s.Send(&command.TimezoneUp{}))

	_, err := s.Receive()
	assert.ErrorIs(t, err, wire.ErrMalformedMessage)

	msg, err := s.Receive()
	require.NoError(t, err)
	assert.Equal(t, command.TimezoneCommandUpID, msg.ID())

	var decoded []wire.Status
	for _, o := range obs.all() {
		if o.op == "decode" {
			decoded = append(decoded, o.status)
		}
	}
	assert.Equal(t, []wire.Status{wire.StatusMalformedMessage, wire.StatusComplete}, decoded)
}

func TestStreamServe(t *testing.T) {
	a, b := net.Pipe()
	received := make(chan command.Message, 4)

	router := dispatch.NewRouter()
	router.HandleFunc(command.ThingUpdateCmdID, func(_ context.Context, msg command.Message) error {
		received <- msg
		return nil
	})
	router.HandleFunc(command.TimezoneCommandDownID, func(_ context.Context, msg command.Message) error {
		received <- msg
		return errors.New("clock busy")
	})

	obs := &recordingObserver{}
	server := NewStream(a, WithRouter(router), WithObserver(obs))
	client := NewStream(b)

	done := make(chan error, 1)
	go func() { done <- server.Serve(context.Background()) }()

	require.NoError(t, client.Send(&command.TimezoneDown{Offset: 3600, Until: 1}))
	// Unknown tag, then a frame that is not CBOR at all.
	require.NoError(t, client.framer.WriteFrame([]byte{0xda, 0x00, 0xff, 0xff, 0xff, 0x80}))
	require.NoError(t, client.framer.WriteFrame([]byte{0xff}))
	require.NoError(t, client.Send(&command.ThingUpdate{ThingID: "after-errors"}))

	first := <-received
	assert.Equal(t, command.TimezoneCommandDownID, first.ID())
	second := <-received
	require.Equal(t, command.ThingUpdateCmdID, second.ID())
	assert.Equal(t, "after-errors", second.(*command.ThingUpdate).ThingID)

	require.NoError(t, client.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after peer closed")
	}

	var statuses []wire.Status
	var dispatchErrs int
	for _, o := range obs.all() {
		switch o.op {
		case "decode":
			statuses = append(statuses, o.status)
		case "dispatch":
			if o.err != nil {
				dispatchErrs++
			}
		}
	}
	assert.Equal(t, []wire.Status{
		wire.StatusComplete, wire.StatusUnknownTag, wire.StatusMalformedMessage, wire.StatusComplete,
	}, statuses)
	assert.Equal(t, 1, dispatchErrs)
}

func TestStreamServeCancel(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	logger := &capturingLogger{}
	server := NewStream(a, WithRouter(dispatch.NewRouter()), WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	var states []string
	for _, e := range logger.Events() {
		if e.StateChange != nil {
			states = append(states, e.StateChange.NewState)
		}
	}
	assert.Equal(t, []string{StateOpen, StateClosed}, states)
}

func TestStreamServeWithoutRouter(t *testing.T) {
	var buf bytes.Buffer
	err := NewStream(&buf).Serve(context.Background())
	assert.ErrorIs(t, err, ErrNoRouter)
}

func TestStreamLogsMessages(t *testing.T) {
	var buf bytes.Buffer
	logger := &capturingLogger{}
	s := NewStream(&buf, WithLogger(logger), WithConnectionID("conn-1"))

	require.NoError(t, s.Send(&command.OtaBeginUp{}))
	_, err := s.Receive()
	require.NoError(t, err)

	var wireEvents []log.Event
	for _, e := range logger.Events() {
		assert.Equal(t, "conn-1", e.ConnectionID)
		if e.Layer == log.LayerWire {
			wireEvents = append(wireEvents, e)
		}
	}
	require.Len(t, wireEvents, 2)
	assert.Equal(t, log.DirectionOut, wireEvents[0].Direction)
	assert.Equal(t, log.DirectionIn, wireEvents[1].Direction)
	for _, e := range wireEvents {
		require.NotNil(t, e.Message)
		assert.Equal(t, command.OtaBeginUpID, e.Message.CommandID)
		assert.Equal(t, wire.TagOtaBeginUp, e.Message.Tag)
		assert.Equal(t, wire.StatusComplete, e.Message.Status)
	}
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	s := NewStream(a)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "pipe", s.RemoteAddr())
}

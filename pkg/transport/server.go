package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/dispatch"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/log"
)

// ServerConfig configures a command server.
type ServerConfig struct {
	// Address to listen on (e.g., ":7050" or "127.0.0.1:7050").
	Address string

	// Router receives the commands of every connection.
	Router *dispatch.Router

	// MaxFrameSize is the maximum payload size (default: 64 KiB).
	MaxFrameSize uint32

	// Logger for protocol logging (optional).
	Logger log.Logger

	// Observer for codec outcomes (optional).
	Observer Observer

	// OnConnect is called when a new stream is established.
	OnConnect func(s *Stream)

	// OnDisconnect is called when a stream ends, with the error Serve
	// returned.
	OnDisconnect func(s *Stream, err error)

	// OnError is called for accept errors.
	OnError func(err error)
}

// Server accepts TCP connections and serves one Stream per connection.
type Server struct {
	config   ServerConfig
	listener net.Listener

	streams   map[*Stream]struct{}
	streamsMu sync.RWMutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a server. The router is required.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Router == nil {
		return nil, fmt.Errorf("router is required")
	}
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	return &Server{
		config:  config,
		streams: make(map[*Stream]struct{}),
	}, nil
}

// Start listens and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and all streams and waits for them to end.
func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}
	s.cancel()
	err := s.listener.Close()

	s.streamsMu.RLock()
	for st := range s.streams {
		st.Close()
	}
	s.streamsMu.RUnlock()

	s.wg.Wait()
	return err
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// StreamCount returns the number of active streams.
func (s *Server) StreamCount() int {
	s.streamsMu.RLock()
	defer s.streamsMu.RUnlock()
	return len(s.streams)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if s.config.OnError != nil {
				s.config.OnError(fmt.Errorf("accept error: %w", err))
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	st := NewStream(conn,
		WithRouter(s.config.Router),
		WithLogger(s.config.Logger),
		WithObserver(s.config.Observer),
		WithMaxFrameSize(s.config.MaxFrameSize),
	)

	s.streamsMu.Lock()
	s.streams[st] = struct{}{}
	s.streamsMu.Unlock()

	if s.config.OnConnect != nil {
		s.config.OnConnect(st)
	}

	err := st.Serve(s.ctx)
	st.Close()

	s.streamsMu.Lock()
	delete(s.streams, st)
	s.streamsMu.Unlock()

	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(st, err)
	}
}

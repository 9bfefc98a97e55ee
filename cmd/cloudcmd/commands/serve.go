package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/dispatch"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/inspect"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/log"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/transport"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/version"
)

// ServeOptions configures the serve command.
type ServeOptions struct {
	Listen       string
	MaxFrameSize uint32
	Protocol     log.Logger
	Observer     transport.Observer
	Logger       *slog.Logger
	Formatter    *inspect.Formatter

	// Output receives every command in human-readable form.
	Output io.Writer

	// Ready is called with the listen address once the server accepts
	// connections.
	Ready func(addr string)
}

// printHandler prints every command it receives.
type printHandler struct {
	mu        sync.Mutex
	w         io.Writer
	formatter *inspect.Formatter
}

func (h *printHandler) HandleCommand(_ context.Context, msg command.Message) error {
	out, err := h.formatter.FormatMessage(msg, nil)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = fmt.Fprint(h.w, out)
	return err
}

// checkPeerVersion logs whether the announced library version is
// compatible with ours.
func checkPeerVersion(logger *slog.Logger, m *command.DeviceBegin) {
	peer, err := version.FromDeviceBegin(m)
	if err != nil {
		logger.Warn("invalid peer library version", "version", m.LibVersion, "error", err)
		return
	}
	local, _ := version.Parse(version.Library)
	if !local.Compatible(peer) {
		logger.Warn("incompatible peer library version", "peer", peer, "local", local)
		return
	}
	logger.Info("peer library version", "peer", peer)
}

// RunServe runs a command server until ctx is done.
func RunServe(ctx context.Context, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	formatter := opts.Formatter
	if formatter == nil {
		formatter = inspect.NewFormatter(nil)
	}

	var fallback dispatch.Handler = dispatch.HandlerFunc(func(context.Context, command.Message) error { return nil })
	if opts.Output != nil {
		fallback = &printHandler{w: opts.Output, formatter: formatter}
	}
	router := dispatch.NewRouter()
	router.SetFallback(fallback)
	router.HandleFunc(command.DeviceBeginCmdID, func(ctx context.Context, msg command.Message) error {
		checkPeerVersion(logger, msg.(*command.DeviceBegin))
		return fallback.HandleCommand(ctx, msg)
	})

	srv, err := transport.NewServer(transport.ServerConfig{
		Address:      opts.Listen,
		Router:       router,
		MaxFrameSize: opts.MaxFrameSize,
		Logger:       opts.Protocol,
		Observer:     opts.Observer,
		OnConnect: func(s *transport.Stream) {
			logger.Info("stream opened", "conn_id", s.ID(), "remote", s.RemoteAddr())
		},
		OnDisconnect: func(s *transport.Stream, err error) {
			if err != nil {
				logger.Warn("stream ended", "conn_id", s.ID(), "error", err)
				return
			}
			logger.Info("stream closed", "conn_id", s.ID())
		},
		OnError: func(err error) {
			logger.Error("server error", "error", err)
		},
	})
	if err != nil {
		return err
	}

	if err := srv.Start(ctx); err != nil {
		return err
	}
	addr := srv.Addr().String()
	logger.Info("listening", "addr", addr)
	if opts.Ready != nil {
		opts.Ready(addr)
	}

	<-ctx.Done()
	logger.Info("shutting down", "streams", srv.StreamCount())
	return srv.Stop()
}

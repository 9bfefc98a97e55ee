package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/inspect"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/log"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/transport"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/version"
)

// SendOptions configures the send command.
type SendOptions struct {
	Address        string
	ConnectTimeout time.Duration
	MaxFrameSize   uint32
	Protocol       log.Logger
	Observer       transport.Observer

	// Announce sends a DeviceBegin with the library version first.
	Announce bool
}

// RunSend parses every document in docPaths, then dials the server and
// sends the commands in order. Nothing is sent if any document is invalid.
func RunSend(ctx context.Context, docPaths []string, opts SendOptions, w io.Writer) error {
	if len(docPaths) == 0 {
		return fmt.Errorf("at least one command document is required")
	}

	var msgs []command.Message
	if opts.Announce {
		msgs = append(msgs, version.DeviceBegin())
	}
	for _, path := range docPaths {
		data, err := readSource(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		parsed, err := inspect.ParseDocuments(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		msgs = append(msgs, parsed...)
	}

	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	stream, err := transport.Dial(ctx, opts.Address,
		transport.WithLogger(opts.Protocol),
		transport.WithObserver(opts.Observer),
		transport.WithMaxFrameSize(opts.MaxFrameSize),
	)
	if err != nil {
		return err
	}
	defer stream.Close()

	for _, msg := range msgs {
		if err := stream.Send(msg); err != nil {
			return fmt.Errorf("send %s: %w", msg.ID(), err)
		}
		fmt.Fprintf(w, "sent %s\n", msg.ID())
	}
	return nil
}

package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// DefaultPort is the default TCP port of a command server.
const DefaultPort = 7050

// DefaultConnectTimeout bounds Dial when ctx has no deadline.
const DefaultConnectTimeout = 30 * time.Second

// Dial connects to a command server and returns a Stream over the
// connection.
func Dial(ctx context.Context, address string, opts ...Option) (*Stream, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultConnectTimeout)
		defer cancel()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	return NewStream(conn, opts...), nil
}

package transport

import (
	"time"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

// Observer receives codec and dispatch outcomes, typically to feed metrics.
// Implementations must be safe for concurrent use.
type Observer interface {
	// ObserveEncode is called after every Send.
	ObserveEncode(id command.ID, size int, status wire.Status)

	// ObserveDecode is called after every received frame.
	ObserveDecode(id command.ID, size int, status wire.Status)

	// ObserveDispatch is called after a handler returned.
	ObserveDispatch(id command.ID, took time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveEncode(command.ID, int, wire.Status)       {}
func (nopObserver) ObserveDecode(command.ID, int, wire.Status)       {}
func (nopObserver) ObserveDispatch(command.ID, time.Duration, error) {}

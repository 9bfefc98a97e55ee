// Package dispatch routes decoded commands to application handlers.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
)

// ErrNoHandler is returned by Dispatch when no handler is registered for a
// command and no fallback is set.
var ErrNoHandler = errors.New("no handler for command")

// Handler consumes one decoded command.
type Handler interface {
	HandleCommand(ctx context.Context, msg command.Message) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg command.Message) error

// HandleCommand calls f(ctx, msg).
func (f HandlerFunc) HandleCommand(ctx context.Context, msg command.Message) error {
	return f(ctx, msg)
}

// Router maps command IDs to handlers. It is safe for concurrent use.
type Router struct {
	mu       sync.RWMutex
	handlers map[command.ID]Handler
	fallback Handler
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		handlers: make(map[command.ID]Handler),
	}
}

// Handle registers h for id, replacing any previous handler. A nil handler
// removes the registration.
func (r *Router) Handle(id command.ID, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h == nil {
		delete(r.handlers, id)
		return
	}
	r.handlers[id] = h
}

// HandleFunc registers a function for id.
func (r *Router) HandleFunc(id command.ID, f func(ctx context.Context, msg command.Message) error) {
	r.Handle(id, HandlerFunc(f))
}

// SetFallback sets the handler for commands without a registration.
func (r *Router) SetFallback(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
}

// Dispatch calls the handler for msg synchronously and returns its error.
func (r *Router) Dispatch(ctx context.Context, msg command.Message) error {
	if msg == nil {
		return fmt.Errorf("dispatch: nil message")
	}
	r.mu.RLock()
	h, ok := r.handlers[msg.ID()]
	if !ok {
		h = r.fallback
	}
	r.mu.RUnlock()

	if h == nil {
		return fmt.Errorf("%w: %s", ErrNoHandler, msg.ID())
	}
	return h.HandleCommand(ctx, msg)
}

// Registered returns the IDs with a handler, in ascending order.
func (r *Router) Registered() []command.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]command.ID, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

package inbound

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-gnap/core"
)

// HandlerFunc executes one decoded command message.
type HandlerFunc func(ctx context.Context, msg core.CommandMessage) error

// Dispatcher resolves a message type to its registered handler. Handler
// registration happens at composition time; dispatch is safe for
// concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[string]HandlerFunc{}}
}

func (d *Dispatcher) Register(messageType string, handler HandlerFunc) error {
	if d == nil {
		return inboundInternal("inbound: dispatcher is nil")
	}
	messageType = normalizeType(messageType)
	if messageType == "" {
		return inboundBadInput("inbound: message type is required")
	}
	if handler == nil {
		return inboundBadInput("inbound: handler is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[messageType]; exists {
		return inboundConflict(fmt.Sprintf("inbound: handler already registered for %q", messageType))
	}
	d.handlers[messageType] = handler
	return nil
}

// Dispatch routes msg to the handler registered for its type. A message
// lacking a type or without a registered handler fails without side
// effects.
func (d *Dispatcher) Dispatch(ctx context.Context, msg any) error {
	if d == nil {
		return inboundInternal("inbound: dispatcher is nil")
	}
	typed, ok := msg.(core.CommandMessage)
	if !ok {
		return inboundBadInput(fmt.Sprintf("inbound: unsupported message %T", msg))
	}
	messageType := normalizeType(typed.Type())
	if messageType == "" {
		return inboundBadInput("inbound: message type is required")
	}

	handler := d.handlerFor(messageType)
	if handler == nil {
		return inboundNotFound(fmt.Sprintf("inbound: no handler registered for %q", messageType))
	}
	return handler(ctx, typed)
}

func (d *Dispatcher) handlerFor(messageType string) HandlerFunc {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers[messageType]
}

func normalizeType(messageType string) string {
	return strings.TrimSpace(strings.ToLower(messageType))
}

var _ core.CommandDispatcher = (*Dispatcher)(nil)

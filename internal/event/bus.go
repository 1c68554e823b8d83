// Package event provides the in-process notification bus for wallet
// lifecycle events.
//
// Handlers run synchronously in the emitter's goroutine, in registration
// order. A failing or panicking handler is logged and counted; the emitter
// never observes it and the remaining handlers still run.
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/mrz1836/nearconnect/internal/config"
	"github.com/mrz1836/nearconnect/internal/metrics"
	"github.com/mrz1836/nearconnect/internal/near"
)

// Well-known event names.
const (
	SignIn         = "wallet:signIn"
	SignOut        = "wallet:signOut"
	NetworkChanged = "wallet:networkChanged"
)

// SignInPayload accompanies SignIn.
type SignInPayload struct {
	Accounts []near.Account `json:"accounts"`
}

// NetworkChangedPayload accompanies NetworkChanged.
type NetworkChangedPayload struct {
	From near.Network `json:"from"`
	To   near.Network `json:"to"`
}

// Handler reacts to an event. payload is nil for events without one.
type Handler func(ctx context.Context, payload any) error

type subscription struct {
	id uint64
	fn Handler
}

// Bus is a synchronous publish/subscribe registry.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	nextID   uint64
	logger   *config.Logger
	metrics  *metrics.Metrics
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for handler failures.
func WithLogger(l *config.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// WithMetrics sets the metrics sink. Defaults to metrics.Global.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) { b.metrics = m }
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{handlers: make(map[string][]subscription)}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics == nil {
		b.metrics = metrics.Global
	}
	return b
}

// On registers fn for name and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bus) On(name string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[name] = append(b.handlers[name], subscription{id: id, fn: fn})

	return func() { b.off(name, id) }
}

func (b *Bus) off(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[name]
	for i, s := range subs {
		if s.id == id {
			b.handlers[name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[name]) == 0 {
		delete(b.handlers, name)
	}
}

// Handlers returns the number of handlers registered for name.
func (b *Bus) Handlers(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

// Emit invokes every handler registered for name with payload.
// Handlers registered or removed during Emit do not affect this dispatch.
func (b *Bus) Emit(ctx context.Context, name string, payload any) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[name]...)
	b.mu.RUnlock()

	for _, s := range subs {
		err := safeHandle(ctx, s.fn, payload)
		b.metrics.RecordHandler(err != nil)
		if err != nil {
			b.logger.Error("event %s handler %d failed: %v", name, s.id, err)
		}
	}
}

func safeHandle(ctx context.Context, fn Handler, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errHandlerPanic, r)
		}
	}()
	return fn(ctx, payload)
}

// Package registry dispatches backend queries to in-process Go handlers by intent.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// ErrNotRegistered is returned for an intent without a handler and no fallback.
var ErrNotRegistered = errors.New("no handler registered for intent")

// Registry manages the intent handlers. It implements ports.Backend.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]ports.Backend
	fallback ports.Backend
}

var _ ports.Backend = (*Registry)(nil)

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]ports.Backend),
	}
}

// Register adds a handler for intent.
// If the intent already has one, it is overwritten.
func (r *Registry) Register(intent string, h ports.Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[intent] = h
}

// RegisterFunc adds a function handler for intent.
func (r *Registry) RegisterFunc(intent string, fn func(ctx context.Context, slots domain.Slots) (map[string]any, error)) {
	r.Register(intent, ports.BackendFunc(func(ctx context.Context, _ string, slots domain.Slots) (map[string]any, error) {
		return fn(ctx, slots)
	}))
}

// SetFallback answers intents without a handler.
func (r *Registry) SetFallback(h ports.Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
}

// Intents lists the intents with a handler, sorted.
func (r *Registry) Intents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for intent := range r.handlers {
		out = append(out, intent)
	}
	sort.Strings(out)
	return out
}

// Query looks up the handler for intent and executes it.
func (r *Registry) Query(ctx context.Context, intent string, slots domain.Slots) (map[string]any, error) {
	r.mu.RLock()
	h, ok := r.handlers[intent]
	if !ok {
		h = r.fallback
	}
	r.mu.RUnlock()

	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, intent)
	}
	return h.Query(ctx, intent, slots)
}

package tasks

import (
	"context"
	"fmt"
	"strings"
)

// Handler performs one operation against the data directory.
type Handler func(ctx context.Context) (*Result, error)

// Registry maps every known operation to its handler. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	handlers map[Operation]Handler
}

// NewRegistry validates that every known operation has a handler and that
// no handler is registered for OpUnknown.
func NewRegistry(handlers map[Operation]Handler) (*Registry, error) {
	var missing []string
	for _, op := range Operations() {
		if handlers[op] == nil {
			missing = append(missing, op.String())
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("registry: no handler for %s", strings.Join(missing, ", "))
	}
	for op := range handlers {
		if !op.Known() {
			return nil, fmt.Errorf("registry: handler registered for %s", op)
		}
	}

	r := &Registry{handlers: make(map[Operation]Handler, len(handlers))}
	for op, h := range handlers {
		r.handlers[op] = h
	}
	return r, nil
}

// Lookup returns the handler for op.
func (r *Registry) Lookup(op Operation) (Handler, bool) {
	h, ok := r.handlers[op]
	return h, ok
}

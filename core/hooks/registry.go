package hooks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cordum/pathpack/core/records"
)

// ErrNoHook is returned when no registered hook accepts a record type.
var ErrNoHook = errors.New("no hook for record type")

// RecordGetter loads a record by id.
type RecordGetter interface {
	Get(ctx context.Context, id string) (*records.Record, error)
}

// Registry selects a hook by record type.
type Registry struct {
	mu    sync.RWMutex
	hooks []Hook
}

// NewRegistry returns a registry holding hooks in registration order.
func NewRegistry(hooks ...Hook) *Registry {
	r := &Registry{}
	for _, h := range hooks {
		r.Register(h)
	}
	return r
}

// Register adds h. The first registered hook whose TypeCheck matches wins.
func (r *Registry) Register(h Hook) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.hooks = append(r.hooks, h)
	r.mu.Unlock()
}

// Lookup returns the hook accepting recordType.
func (r *Registry) Lookup(recordType string) (Hook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.hooks {
		if h.TypeCheck(recordType) {
			return h, true
		}
	}
	return nil, false
}

// Types lists the registered hook types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.hooks))
	for _, h := range r.hooks {
		out = append(out, h.Type())
	}
	return out
}

// Dispatch runs the hook selected by rec.Type.
func (r *Registry) Dispatch(ctx context.Context, rec *records.Record) error {
	if rec == nil {
		return errNilRecord
	}
	h, ok := r.Lookup(rec.Type)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoHook, rec.Type)
	}
	return h.Exec(ctx, rec)
}

// ExecRecord loads the record id from store and dispatches it.
func (r *Registry) ExecRecord(ctx context.Context, store RecordGetter, id string) (*records.Record, error) {
	rec, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec, r.Dispatch(ctx, rec)
}

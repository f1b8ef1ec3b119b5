package sources

import (
	"context"

	"go.uber.org/zap"
)

// Registry maps provider kinds to their adapters. It is built once at
// start-up and read-only afterwards.
type Registry struct {
	adapters map[Kind]Adapter
	order    []Kind
}

// NewRegistry indexes the given adapters. A later adapter of the same kind
// replaces an earlier one.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[Kind]Adapter, len(adapters))}
	for _, a := range adapters {
		if _, dup := r.adapters[a.Kind()]; !dup {
			r.order = append(r.order, a.Kind())
		}
		r.adapters[a.Kind()] = a
	}
	return r
}

// Build constructs and registers all three providers.
func Build(ctx context.Context, store Store, logger *zap.Logger, wbOpts ...WorldBankOption) (*Registry, error) {
	unicef, err := NewUNICEF(ctx, store, logger)
	if err != nil {
		return nil, err
	}
	who, err := NewWHO(ctx, store, logger)
	if err != nil {
		return nil, err
	}
	wb, err := NewWorldBank(ctx, store, logger, wbOpts...)
	if err != nil {
		return nil, err
	}
	return NewRegistry(unicef, who, wb), nil
}

// Get returns the adapter for a kind.
func (r *Registry) Get(k Kind) (Adapter, bool) {
	a, ok := r.adapters[k]
	return a, ok
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []Kind {
	return append([]Kind(nil), r.order...)
}

package gateway

import (
	"fmt"
	"sort"
	"sync"

	"github.com/DanielPopoola/eventpay/internal/domain"
)

// Registry maps a gateway identifier to its adapter.
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.Gateway]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[domain.Gateway]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Gateway()] = a
}

func (r *Registry) Get(g domain.Gateway) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[g]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGateway, g)
	}
	return a, nil
}

func (r *Registry) Gateways() []domain.Gateway {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Gateway, 0, len(r.adapters))
	for g := range r.adapters {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

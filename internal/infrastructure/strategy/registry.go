// Package strategy resolves allocation strategies by the name used in configuration.
package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/strategy"
	"github.com/pos/backend/internal/infrastructure/strategy/allocation"
)

// AllocationRegistry maps strategy names to payment allocation strategies
type AllocationRegistry struct {
	mu          sync.RWMutex
	byName      map[string]strategy.PaymentAllocationStrategy
	defaultName string
}

// NewAllocationRegistry registers the given strategies; the first one becomes the default.
func NewAllocationRegistry(strategies ...strategy.PaymentAllocationStrategy) (*AllocationRegistry, error) {
	r := &AllocationRegistry{byName: make(map[string]strategy.PaymentAllocationStrategy, len(strategies))}
	for _, s := range strategies {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultAllocationRegistry holds the built-in strategies with FIFO as default
func DefaultAllocationRegistry() *AllocationRegistry {
	r, err := NewAllocationRegistry(allocation.NewFIFOAllocationStrategy())
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds a strategy under its name. Duplicate names are rejected.
func (r *AllocationRegistry) Register(s strategy.PaymentAllocationStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, taken := r.byName[name]; taken {
		return fmt.Errorf("%w: allocation strategy %q already registered", shared.ErrInvalidInput, name)
	}
	r.byName[name] = s
	if r.defaultName == "" {
		r.defaultName = name
	}
	return nil
}

// Lookup returns the named strategy; an empty name selects the default.
func (r *AllocationRegistry) Lookup(name string) (strategy.PaymentAllocationStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultName
	}
	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: allocation strategy %q", shared.ErrNotFound, name)
	}
	return s, nil
}

// Names lists registered strategy names in sorted order
func (r *AllocationRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package assets

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/dialoguegraph/pkg/observability"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

// MemoryRepository keeps encoded graphs in a map. Stores are copied on the
// way in and out, so callers never share state with the repository.
type MemoryRepository struct {
	mu     sync.RWMutex
	graphs map[string][]byte
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{graphs: make(map[string][]byte)}
}

// Get decodes a copy of the stored graph.
func (r *MemoryRepository) Get(ctx context.Context, name string) (s *store.Store, err error) {
	start := time.Now()
	defer func() { observeGet(ctx, "memory", name, start, err) }()

	if err := validName(name); err != nil {
		return nil, err
	}
	r.mu.RLock()
	data, ok := r.graphs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, notFound(name)
	}
	return store.Unmarshal(data)
}

// Put stores an encoded copy of s.
func (r *MemoryRepository) Put(ctx context.Context, name string, s *store.Store) (err error) {
	start := time.Now()
	var data []byte
	defer func() { observePut(ctx, "memory", name, len(data), start, err) }()

	data, err = encode(name, s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.graphs[name] = data
	r.mu.Unlock()
	return nil
}

// Delete removes a graph.
func (r *MemoryRepository) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	r.mu.Lock()
	_, ok := r.graphs[name]
	delete(r.graphs, name)
	r.mu.Unlock()
	if !ok {
		return notFound(name)
	}
	observability.Storage().OnDelete(ctx, "memory", name)
	return nil
}

// List returns the stored names.
func (r *MemoryRepository) List(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.graphs)), nil
}

// Close does nothing for memory repositories.
func (r *MemoryRepository) Close() error { return nil }

var _ Repository = (*MemoryRepository)(nil)

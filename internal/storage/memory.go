// Package storage provides an in-memory content store, optionally seeded
// from a YAML fixtures file.
package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/atinyakov/go-unveil/internal/content"
)

// ErrAlreadyExists is returned when an instance with the same model and id
// has already been written.
var ErrAlreadyExists = errors.New("already exists")

type instanceKey struct {
	model string
	id    int64
}

// MemoryStorage keeps models and instances in process memory.
type MemoryStorage struct {
	mu        sync.RWMutex
	models    []content.Model
	instances []content.Instance
	index     map[instanceKey]struct{}
}

// CreateMemoryStorage returns an empty store.
func CreateMemoryStorage() (*MemoryStorage, error) {
	return &MemoryStorage{
		index: make(map[instanceKey]struct{}),
	}, nil
}

// AddModels registers models. A model whose label is already known is ignored.
func (m *MemoryStorage) AddModels(models ...content.Model) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, model := range models {
		if m.hasModel(model.Label()) {
			continue
		}
		m.models = append(m.models, model)
	}
}

func (m *MemoryStorage) hasModel(label string) bool {
	for _, known := range m.models {
		if known.Label() == label {
			return true
		}
	}
	return false
}

// Write stores one instance.
func (m *MemoryStorage) Write(_ context.Context, in content.Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := instanceKey{model: in.Model, id: in.ID}
	if _, exists := m.index[key]; exists {
		return ErrAlreadyExists
	}

	m.index[key] = struct{}{}
	m.instances = append(m.instances, in)
	return nil
}

// WriteAll stores instances, stopping at the first error.
func (m *MemoryStorage) WriteAll(ctx context.Context, ins []content.Instance) error {
	for _, in := range ins {
		if err := m.Write(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

// Models returns the models of kind, or every model when kind is empty.
func (m *MemoryStorage) Models(_ context.Context, kind content.Kind) ([]content.Model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []content.Model
	for _, model := range m.models {
		if kind == "" || model.Kind == kind {
			out = append(out, model)
		}
	}
	return out, nil
}

// Instances returns the instances matching q in q.Order.
func (m *MemoryStorage) Instances(ctx context.Context, q content.Query) ([]content.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var out []content.Instance
	for _, in := range m.instances {
		if q.Match(in) {
			out = append(out, in)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if q.Order == content.OrderByTitle && out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStorage) Ping(ctx context.Context) error {
	return ctx.Err()
}

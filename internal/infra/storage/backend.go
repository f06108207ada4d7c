package storage

import (
	"context"
	"sync"
)

// backend is the raw key/value surface a Store is built on.
type backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// AppendCapped pushes value onto the list at key and keeps only the
	// newest limit entries.
	AppendCapped(ctx context.Context, key string, value []byte, limit int) error
	List(ctx context.Context, key string) ([][]byte, error)
	Ping(ctx context.Context) error
}

type memoryBackend struct {
	mu    sync.RWMutex
	items map[string][]byte
	lists map[string][][]byte
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		items: make(map[string][]byte),
		lists: make(map[string][][]byte),
	}
}

func (m *memoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.items[key]
	return v, ok, nil
}

func (m *memoryBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	delete(m.lists, key)
	return nil
}

func (m *memoryBackend) AppendCapped(_ context.Context, key string, value []byte, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := append(m.lists[key], append([]byte(nil), value...))
	if limit > 0 && len(list) > limit {
		list = append([][]byte(nil), list[len(list)-limit:]...)
	}
	m.lists[key] = list
	return nil
}

func (m *memoryBackend) List(_ context.Context, key string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([][]byte(nil), m.lists[key]...), nil
}

func (m *memoryBackend) Ping(context.Context) error {
	return nil
}

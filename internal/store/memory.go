package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store used by tests and `serve --memory`.
type MemoryStore struct {
	mu           sync.RWMutex
	buffers      map[string]map[string]string
	publications []Publication
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{buffers: make(map[string]map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, project, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.buffers[project][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, project, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buffers[project] == nil {
		m.buffers[project] = make(map[string]string)
	}
	m.buffers[project][key] = value
	return nil
}

func (m *MemoryStore) All(_ context.Context, project string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.buffers[project]))
	for k, v := range m.buffers[project] {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) RecordPublication(_ context.Context, p Publication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publications = append(m.publications, p)
	return nil
}

func (m *MemoryStore) Publications(_ context.Context, project string) ([]Publication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Publication
	for _, p := range m.publications {
		if p.Project == project {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

package store

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Store. Records are kept msgpack-encoded so
// callers never share slices with the store.
type Memory struct {
	mu   sync.RWMutex
	runs map[string][]byte
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{runs: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("store: run id is required")
	}
	data, err := encode(run)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", run.ID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = data
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (Run, error) {
	m.mu.RLock()
	data, ok := m.runs[id]
	m.mu.RUnlock()
	if !ok {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return decode(data)
}

func (m *Memory) List(_ context.Context) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]Run, 0, len(m.runs))
	for id, data := range m.runs {
		run, err := decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode run %s: %w", id, err)
		}
		runs = append(runs, run)
	}
	newestFirst(runs)
	return runs, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.runs, id)
	return nil
}

func (m *Memory) Clear(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.runs)
	m.runs = make(map[string][]byte)
	return n, nil
}

func (m *Memory) Close() error {
	return nil
}

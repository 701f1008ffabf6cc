package storage

import (
	"context"
	"sync"

	"github.com/JaimeStill/certifier/pkg/lifecycle"
)

type memory struct {
	mu     sync.RWMutex
	prefix string
	blobs  map[string][]byte
}

// NewMemory creates a process-local storage system. Contents are lost on exit.
func NewMemory(prefix string) System {
	return &memory{
		prefix: prefix,
		blobs:  make(map[string][]byte),
	}
}

func (m *memory) Start(*lifecycle.Coordinator) error { return nil }

func (m *memory) Key(parts ...string) string {
	return joinKey(m.prefix, parts...)
}

func (m *memory) Upload(_ context.Context, key string, data []byte, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (m *memory) Download(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *memory) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return ErrNotFound
	}
	delete(m.blobs, key)
	return nil
}

func (m *memory) Exists(_ context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[key]
	return ok, nil
}

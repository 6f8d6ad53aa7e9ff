package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Memory keeps objects in a map. Used in tests and in development when no
// provider is configured.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	contentType string
	data        []byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memoryObject)}
}

func (m *Memory) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.objects[key] = memoryObject{contentType: contentType, data: buf.Bytes()}
	m.mu.Unlock()

	return "memory://" + key, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Get returns a stored object's bytes and content type.
func (m *Memory) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj.data, obj.contentType, ok
}

// Len reports how many objects are stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

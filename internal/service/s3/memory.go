package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"tempiaops/internal/apperror"
)

// MemoryStorage is an in-process Storage used by tests and local runs
// without an object store.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string]memoryObject
	FailPut error
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]memoryObject)}
}

func (m *MemoryStorage) UploadBytes(_ context.Context, key string, data []byte, contentType string) error {
	if m.FailPut != nil {
		return m.FailPut
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (m *MemoryStorage) GetObject(_ context.Context, key string) (Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, apperror.New(apperror.CodeNotFound, "object not found: "+key)
	}
	return &object{
		ReadCloser:    io.NopCloser(bytes.NewReader(o.data)),
		contentLength: int64(len(o.data)),
		contentType:   o.contentType,
	}, nil
}

func (m *MemoryStorage) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStorage) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("memory://%s?expires=%d", key, int64(ttl.Seconds())), nil
}

// Has reports whether key is stored.
func (m *MemoryStorage) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/vidtube/backend/internal/models"
)

// MemoryStorage keeps uploaded objects in memory. It backs tests and local
// runs without an object store.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string
}

// NewMemoryStorage returns an empty store serving objects under baseURL.
func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte), baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Upload reads r fully and keeps it under key.
func (m *MemoryStorage) Upload(_ context.Context, key, _ string, r io.Reader) (models.Media, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return models.Media{}, fmt.Errorf("memory storage: %w", ErrEmptyKey)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Media{}, fmt.Errorf("memory storage read %s: %w", key, err)
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return models.Media{URL: m.baseURL + "/" + key, StorageID: key}, nil
}

// Delete forgets the object. Deleting a missing object is not an error.
func (m *MemoryStorage) Delete(_ context.Context, storageID string) error {
	if storageID == "" {
		return fmt.Errorf("memory storage: %w", ErrEmptyKey)
	}
	m.mu.Lock()
	delete(m.objects, storageID)
	m.mu.Unlock()
	return nil
}

// Has reports whether an object is stored under key.
func (m *MemoryStorage) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// Len reports the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

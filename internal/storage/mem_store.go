package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemStore is an in-memory ObjectStore. It backs the `memory` storage
// backend and doubles as the test fake; call counters and error injection
// support failure-path tests.
type MemStore struct {
	mu      sync.RWMutex
	objects map[string]*Object
	calls   MemCalls

	// FailPuts makes every Put return the given error (test hook).
	FailPuts error
	// FailGets makes every Get return the given error (test hook).
	FailGets error
}

// MemCalls tracks method invocations for test verification.
type MemCalls struct {
	Put    int
	Get    int
	Stat   int
	List   int
	Delete int
}

// NewMemStore creates a new in-memory object store.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string]*Object)}
}

// Put stores data under key, replacing any existing object.
func (m *MemStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Put++

	if m.FailPuts != nil {
		return m.FailPuts
	}

	sum := sha256.Sum256(data)
	stored := &Object{
		Key:          key,
		Data:         make([]byte, len(data)),
		ContentType:  contentType,
		Size:         int64(len(data)),
		ETag:         hex.EncodeToString(sum[:]),
		LastModified: time.Now().UTC(),
	}
	copy(stored.Data, data)
	m.objects[key] = stored
	return nil
}

// Get retrieves an object by key.
func (m *MemStore) Get(ctx context.Context, key string) (*Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	// Full lock: the call counter mutates on reads too.
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Get++

	if m.FailGets != nil {
		return nil, m.FailGets
	}

	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound{Key: key}
	}

	// Return a copy to prevent external modification.
	result := *obj
	result.Data = make([]byte, len(obj.Data))
	copy(result.Data, obj.Data)
	return &result, nil
}

// Stat returns object metadata without its data.
func (m *MemStore) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	key, err := cleanKey(key)
	if err != nil {
		return ObjectInfo{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Stat++

	obj, ok := m.objects[key]
	if !ok {
		return ObjectInfo{}, ErrNotFound{Key: key}
	}
	return ObjectInfo{
		Key:          obj.Key,
		Size:         obj.Size,
		ETag:         obj.ETag,
		ContentType:  obj.ContentType,
		LastModified: obj.LastModified,
	}, nil
}

// List returns info for all objects under prefix, sorted by key.
func (m *MemStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.List++

	var infos []ObjectInfo
	for key, obj := range m.objects {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		infos = append(infos, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			ETag:         obj.ETag,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Delete removes an object by key.
func (m *MemStore) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Delete++

	if _, ok := m.objects[key]; !ok {
		return ErrNotFound{Key: key}
	}
	delete(m.objects, key)
	return nil
}

// Close releases resources (no-op).
func (m *MemStore) Close() error {
	return nil
}

// Calls returns the number of times each method was called.
func (m *MemStore) Calls() MemCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Len returns the number of stored objects.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// String returns a string representation for debugging.
func (m *MemStore) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("MemStore{objects: %d, calls: %+v}", len(m.objects), m.calls)
}

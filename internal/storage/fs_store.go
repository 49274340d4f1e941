package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const metaSuffix = ".meta.json"

// FSStore is a filesystem-backed ObjectStore. Object data lives at
// <root>/<key>; a JSON sidecar at <root>/<key>.meta.json carries the
// content type and etag.
type FSStore struct {
	root string
	mu   sync.RWMutex
}

// fsMeta is the sidecar schema.
type fsMeta struct {
	ContentType string    `json:"content_type"`
	ETag        string    `json:"etag"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewFSStore creates a filesystem-backed object store rooted at root.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &FSStore{root: root}, nil
}

// Put stores data under key, replacing any existing object.
func (s *FSStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.objectPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write object: %w", err)
	}

	sum := sha256.Sum256(data)
	meta := fsMeta{
		ContentType: contentType,
		ETag:        hex.EncodeToString(sum[:]),
		CreatedAt:   time.Now().UTC(),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(path+metaSuffix, raw, 0600); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Get retrieves an object by key.
func (s *FSStore) Get(ctx context.Context, key string) (*Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.objectPath(key)
	// #nosec G304 - path is rooted and the key is sanitized
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Key: key}
		}
		return nil, fmt.Errorf("read object: %w", err)
	}

	info, err := s.statUnlocked(key)
	if err != nil {
		return nil, err
	}

	return &Object{
		Key:          key,
		Data:         data,
		ContentType:  info.ContentType,
		Size:         info.Size,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

// Stat returns object metadata without its data.
func (s *FSStore) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	key, err := cleanKey(key)
	if err != nil {
		return ObjectInfo{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statUnlocked(key)
}

func (s *FSStore) statUnlocked(key string) (ObjectInfo, error) {
	path := s.objectPath(key)
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectInfo{}, ErrNotFound{Key: key}
		}
		return ObjectInfo{}, fmt.Errorf("stat object: %w", err)
	}

	info := ObjectInfo{
		Key:          key,
		Size:         fi.Size(),
		LastModified: fi.ModTime(),
	}

	// Sidecar is best effort; an object without one still stats.
	// #nosec G304 - path is rooted and the key is sanitized
	if raw, err := os.ReadFile(path + metaSuffix); err == nil {
		var meta fsMeta
		if err := json.Unmarshal(raw, &meta); err == nil {
			info.ContentType = meta.ContentType
			info.ETag = meta.ETag
		}
	}
	return info, nil
}

// List returns info for all objects under prefix, sorted by key.
func (s *FSStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var infos []ObjectInfo
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := s.statUnlocked(key)
		if err != nil {
			return nil
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk objects: %w", err)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Delete removes an object by key.
func (s *FSStore) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.objectPath(key)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound{Key: key}
		}
		return fmt.Errorf("delete object: %w", err)
	}
	_ = os.Remove(path + metaSuffix)  // Best effort
	_ = os.Remove(filepath.Dir(path)) // Best effort, removes only when empty
	return nil
}

// Close releases resources.
func (s *FSStore) Close() error {
	return nil
}

// objectPath maps a sanitized key onto the filesystem.
func (s *FSStore) objectPath(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Package storage provides the content bucket abstraction for generated
// markdown, thumbnails, and site assets.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ObjectStore is a key-addressed object bucket. Keys are slash-separated
// paths (`content/en-digest-2026-01-05.md`); writes to an existing key
// overwrite it (latest wins).
type ObjectStore interface {
	// Put stores data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get retrieves an object by key.
	// Returns ErrNotFound if the object doesn't exist.
	Get(ctx context.Context, key string) (*Object, error)

	// Stat returns object metadata without its data.
	// Returns ErrNotFound if the object doesn't exist.
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// List returns info for all objects whose key starts with prefix,
	// sorted by key. An empty prefix lists the whole bucket.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Delete removes an object by key.
	// Returns ErrNotFound if the object doesn't exist.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Object is a stored object with its data.
type Object struct {
	Key          string
	Data         []byte
	ContentType  string
	Size         int64
	ETag         string
	LastModified time.Time
}

// ObjectInfo is object metadata without the data payload.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Content types written by the pipeline.
const (
	ContentTypeMarkdown = "text/markdown; charset=utf-8"
	ContentTypePNG      = "image/png"
)

// ErrNotFound is returned when an object doesn't exist.
type ErrNotFound struct {
	Key string
}

func (e ErrNotFound) Error() string {
	return "object not found: " + e.Key
}

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}

// cleanKey validates and canonicalizes an object key. Keys are relative
// slash paths without traversal segments.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("object key cannot be empty")
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("invalid object key: %s", key)
		}
	}
	return key, nil
}

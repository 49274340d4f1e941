package storage

import (
	"context"
	"os"
	"testing"
)

func TestFSStorePutAndGet(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	data := []byte("---\ntitle: Weekly Digest\n---\n\n# Digest\n")

	if err := store.Put(ctx, "content/en-digest-2026-01-05.md", data, ContentTypeMarkdown); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Verify object file exists on disk
	objectPath := store.objectPath("content/en-digest-2026-01-05.md")
	if _, err := os.Stat(objectPath); err != nil {
		t.Errorf("Object file not created: %v", err)
	}

	retrieved, err := store.Get(ctx, "content/en-digest-2026-01-05.md")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if string(retrieved.Data) != string(data) {
		t.Errorf("Got data %q, want %q", retrieved.Data, data)
	}
	if retrieved.ContentType != ContentTypeMarkdown {
		t.Errorf("Got content type %v, want %v", retrieved.ContentType, ContentTypeMarkdown)
	}
	if retrieved.ETag == "" {
		t.Error("ETag should be populated from the sidecar")
	}
	if retrieved.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", retrieved.Size, len(data))
	}
}

func TestFSStoreOverwriteIsLatestWins(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	key := "content/ja-digest-2026-01-05.md"

	if err := store.Put(ctx, key, []byte("first"), ContentTypeMarkdown); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	first, err := store.Stat(ctx, key)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	if err := store.Put(ctx, key, []byte("second"), ContentTypeMarkdown); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	second, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if string(second.Data) != "second" {
		t.Errorf("overwrite did not take: got %q", second.Data)
	}
	if first.ETag == second.ETag {
		t.Error("ETag should change when content changes")
	}

	infos, err := store.List(ctx, "content/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 1 {
		t.Errorf("overwrite should not create a second object, got %d", len(infos))
	}
}

func TestFSStoreNotFound(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if _, err := store.Get(ctx, "content/missing.md"); !IsNotFound(err) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := store.Stat(ctx, "content/missing.md"); !IsNotFound(err) {
		t.Errorf("Stat(missing) error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "content/missing.md"); !IsNotFound(err) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

func TestFSStoreListPrefix(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	keys := []string{
		"content/en-digest-2026-01-05.md",
		"content/en-digest-2026-01-05.png",
		"content/ja-digest-2026-01-05.md",
		"site/config.yaml",
	}
	for _, key := range keys {
		if err := store.Put(ctx, key, []byte(key), "text/plain"); err != nil {
			t.Fatalf("Put(%s) failed: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "content/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("List(content/) returned %d objects, want 3", len(infos))
	}
	// Sorted by key
	if infos[0].Key != "content/en-digest-2026-01-05.md" {
		t.Errorf("first key = %s, want en markdown", infos[0].Key)
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List(all) failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("List(\"\") returned %d objects, want 4", len(all))
	}
}

func TestFSStoreRejectsTraversalKeys(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	bad := []string{"", "..", "content/../../etc/passwd", "a//b", "./x"}
	for _, key := range bad {
		if err := store.Put(ctx, key, []byte("x"), "text/plain"); err == nil {
			t.Errorf("Put(%q) should reject the key", key)
		}
	}
}

package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemStoreRoundTrip(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	data := []byte("# Digest\n")
	if err := store.Put(ctx, "content/en-digest-2026-01-05.md", data, ContentTypeMarkdown); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	obj, err := store.Get(ctx, "content/en-digest-2026-01-05.md")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(obj.Data) != string(data) {
		t.Errorf("Got %q, want %q", obj.Data, data)
	}

	// Mutating the returned slice must not corrupt the stored object.
	obj.Data[0] = 'X'
	again, err := store.Get(ctx, "content/en-digest-2026-01-05.md")
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if string(again.Data) != string(data) {
		t.Error("stored object was mutated through a returned copy")
	}

	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
}

func TestMemStoreCallCounters(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	_ = store.Put(ctx, "a", []byte("1"), "text/plain")
	_ = store.Put(ctx, "b", []byte("2"), "text/plain")
	_, _ = store.Get(ctx, "a")
	_, _ = store.Stat(ctx, "b")
	_, _ = store.List(ctx, "")
	_ = store.Delete(ctx, "a")

	calls := store.Calls()
	if calls.Put != 2 {
		t.Errorf("Put calls = %d, want 2", calls.Put)
	}
	if calls.Get != 1 {
		t.Errorf("Get calls = %d, want 1", calls.Get)
	}
	if calls.Stat != 1 {
		t.Errorf("Stat calls = %d, want 1", calls.Stat)
	}
	if calls.List != 1 {
		t.Errorf("List calls = %d, want 1", calls.List)
	}
	if calls.Delete != 1 {
		t.Errorf("Delete calls = %d, want 1", calls.Delete)
	}
}

func TestMemStoreFailureInjection(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	injected := errors.New("backend unavailable")
	store.FailPuts = injected
	if err := store.Put(ctx, "a", []byte("1"), "text/plain"); !errors.Is(err, injected) {
		t.Errorf("Put error = %v, want injected failure", err)
	}
	store.FailPuts = nil

	if err := store.Put(ctx, "a", []byte("1"), "text/plain"); err != nil {
		t.Fatalf("Put after clearing injection failed: %v", err)
	}

	store.FailGets = injected
	if _, err := store.Get(ctx, "a"); !errors.Is(err, injected) {
		t.Errorf("Get error = %v, want injected failure", err)
	}
}

func TestMemStoreListPrefix(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	keys := []string{
		"content/en-digest-2026-01-05.md",
		"content/ja-digest-2026-01-05.md",
		"site/index.html",
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
	if len(infos) != 2 {
		t.Fatalf("List(content/) = %d objects, want 2", len(infos))
	}
	if infos[0].Key > infos[1].Key {
		t.Error("List results not sorted by key")
	}

	if _, err := store.Get(ctx, "site/missing.html"); !IsNotFound(err) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}

package blob

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "push/D1/1.json", []byte(`{"a":1}`), "application/json"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := store.Get(ctx, "push/D1/1.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("Unexpected data: %s", data)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "push/none/1.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Overwrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Put(ctx, "k", []byte("first"), "application/json")
	store.Put(ctx, "k", []byte("second"), "application/json")

	data, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("Expected last write to win, got %s", data)
	}
	if store.Len() != 1 {
		t.Errorf("Expected a single entry, got %d", store.Len())
	}
}

func TestMemoryStore_ListPrefixAndLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Put(ctx, "push/D1/2.json", []byte("b"), "application/json")
	store.Put(ctx, "push/D1/1.json", []byte("a"), "application/json")
	store.Put(ctx, "other/D1/3.json", []byte("c"), "application/json")

	keys, err := store.List(ctx, "push/", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("Expected 2 keys, got %d", len(keys))
	}
	if keys[0] != "push/D1/1.json" || keys[1] != "push/D1/2.json" {
		t.Errorf("Expected lexicographic order, got %v", keys)
	}

	keys, err = store.List(ctx, "push/", 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("Expected limit to cap results, got %d", len(keys))
	}
}

func TestMemoryStore_CopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := []byte("immutable")
	store.Put(ctx, "k", original, "application/json")
	original[0] = 'X'

	data, _ := store.Get(ctx, "k")
	if string(data) != "immutable" {
		t.Errorf("Store must copy on Put, got %s", data)
	}

	data[0] = 'Y'
	again, _ := store.Get(ctx, "k")
	if string(again) != "immutable" {
		t.Errorf("Store must copy on Get, got %s", again)
	}
}

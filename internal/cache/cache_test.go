package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	if _, ok := store.Get(ctx, "missing"); ok {
		t.Fatal("hit on empty store")
	}

	store.Set(ctx, "categories?page=1", []byte(`{"data":[]}`), ListTag("categories"))
	payload, ok := store.Get(ctx, "categories?page=1")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(payload) != `{"data":[]}` {
		t.Errorf("unexpected payload: %s", payload)
	}
}

func TestMemoryStoreInvalidateByTag(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	store.Set(ctx, "categories?page=1", []byte("a"), ListTag("categories"))
	store.Set(ctx, "categories?page=2", []byte("b"), ListTag("categories"))
	store.Set(ctx, "categories/c1", []byte("c"), DetailTag("categories", "c1"))
	store.Set(ctx, "courses?page=1", []byte("d"), ListTag("courses"))

	store.Invalidate(ctx, ListTag("categories"))

	if _, ok := store.Get(ctx, "categories?page=1"); ok {
		t.Error("list page 1 survived invalidation")
	}
	if _, ok := store.Get(ctx, "categories?page=2"); ok {
		t.Error("list page 2 survived invalidation")
	}
	if _, ok := store.Get(ctx, "categories/c1"); !ok {
		t.Error("detail dropped by list tag invalidation")
	}
	if _, ok := store.Get(ctx, "courses?page=1"); !ok {
		t.Error("unrelated entity dropped")
	}
}

func TestMemoryStoreMultipleTags(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	store.Set(ctx, "key", []byte("v"), ListTag("videos"), DetailTag("videos", "v1"))
	store.Invalidate(ctx, DetailTag("videos", "v1"))
	if _, ok := store.Get(ctx, "key"); ok {
		t.Error("entry survived invalidation of its second tag")
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10 * time.Millisecond)

	store.Set(ctx, "key", []byte("v"), ListTag("pages"))
	time.Sleep(25 * time.Millisecond)
	if _, ok := store.Get(ctx, "key"); ok {
		t.Error("expired entry served")
	}
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	store.Set(ctx, "key", []byte("old"), ListTag("plans"))
	store.Set(ctx, "key", []byte("new"), ListTag("plans"))
	payload, ok := store.Get(ctx, "key")
	if !ok || string(payload) != "new" {
		t.Errorf("overwrite lost: %q ok=%v", payload, ok)
	}
}

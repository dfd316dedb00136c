package document

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestStorePutAndText(t *testing.T) {
	store := NewStore()

	id := store.Put("raw cv text", "cv.txt")
	if id == "" {
		t.Fatalf("expected a non-empty id")
	}

	text, err := store.Text(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "raw cv text" {
		t.Fatalf("unexpected text: %q", text)
	}

	if store.Len() != 1 {
		t.Fatalf("expected 1 stored document, got %d", store.Len())
	}
}

func TestStoreUnknownID(t *testing.T) {
	store := NewStore()

	if _, err := store.Text("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Chunks("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.SetChunks("missing", []string{"a"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreUniqueIDs(t *testing.T) {
	store := NewStore()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := store.Put("text", "cv.txt")
		if seen[id] {
			t.Fatalf("duplicate id: %s", id)
		}
		seen[id] = true
	}
}

func TestStoreChunksLifecycle(t *testing.T) {
	store := NewStore()
	id := store.Put("text", "cv.txt")

	chunks, err := store.Chunks(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks before analysis, got %d", len(chunks))
	}

	if err := store.SetChunks(id, []string{"one", "two"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks, err = store.Chunks(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 || chunks[0] != "one" || chunks[1] != "two" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}

	// The returned slice is a copy. Mutating it must not affect the store.
	chunks[0] = "mutated"
	fresh, _ := store.Chunks(id)
	if fresh[0] != "one" {
		t.Fatalf("store chunks were mutated through the returned slice")
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	store := NewStore()
	id := store.Put("text", "cv.txt")
	if err := store.SetChunks(id, []string{"one"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := store.Get(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != id || rec.Filename != "cv.txt" || rec.RawText != "text" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	rec.Chunks[0] = "mutated"
	fresh, _ := store.Chunks(id)
	if fresh[0] != "one" {
		t.Fatalf("store chunks were mutated through the returned record")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := store.Put(fmt.Sprintf("text %d", n), "cv.txt")
			if err := store.SetChunks(id, []string{"chunk"}); err != nil {
				t.Errorf("set chunks: %v", err)
			}
			if _, err := store.Text(id); err != nil {
				t.Errorf("text: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 50 {
		t.Fatalf("expected 50 documents, got %d", store.Len())
	}
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreDurability(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "state.db")

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := store.Set(ctx, "src::last_updated", "1700000000"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}

	// Unflushed writes must not survive the close.
	if err := store.Set(ctx, "src::hashes", `["abc"]`); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := store.Close(ctx); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close(ctx)

	value, ok, err := reopened.Get(ctx, "src::last_updated")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok || value != "1700000000" {
		t.Fatalf("flushed value = %q ok=%v, want 1700000000", value, ok)
	}

	if _, ok, _ := reopened.Get(ctx, "src::hashes"); ok {
		t.Fatal("unflushed write survived restart")
	}
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "state.db")

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer store.Close(ctx)

	for _, value := range []string{"1", "2", "3"} {
		if err := store.Set(ctx, "k", value); err != nil {
			t.Fatalf("Set() error: %v", err)
		}
		if err := store.Flush(ctx); err != nil {
			t.Fatalf("Flush() error: %v", err)
		}
	}

	value, ok, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok || value != "3" {
		t.Fatalf("Get(k) = %q ok=%v, want latest value 3", value, ok)
	}
}

package tokenstore

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v3"
)

func newTestDBStore(t *testing.T) *DBStore {
	t.Helper()
	store, err := NewDBStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDBStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// countTokenRecords counts records under the token prefix directly.
func countTokenRecords(t *testing.T, store *DBStore) int {
	t.Helper()
	count := 0
	err := store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = tokenKeyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("counting records failed: %v", err)
	}
	return count
}

func TestDBStoreReadEmpty(t *testing.T) {
	store := newTestDBStore(t)

	token, ok, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if ok {
		t.Errorf("expected no token in fresh store, got %q", token)
	}
}

func TestDBStoreSaveRead(t *testing.T) {
	store := newTestDBStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "tok-abc"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	token, ok, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !ok {
		t.Fatal("expected token after save, got none")
	}
	if token != "tok-abc" {
		t.Errorf("Read = %q, want %q", token, "tok-abc")
	}
}

func TestDBStoreSaveReplaces(t *testing.T) {
	store := newTestDBStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "first"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, "second"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	token, ok, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !ok || token != "second" {
		t.Errorf("Read = (%q, %v), want (%q, true)", token, ok, "second")
	}
	if got := countTokenRecords(t, store); got != 1 {
		t.Errorf("record count after replace = %d, want 1", got)
	}
}

func TestDBStoreClear(t *testing.T) {
	store := newTestDBStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "tok"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	_, ok, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if ok {
		t.Error("expected no token after clear")
	}

	// Clearing an already-empty store succeeds.
	if err := store.Clear(ctx); err != nil {
		t.Errorf("Clear on empty store failed: %v", err)
	}
}

func TestDBStoreReadDeduplicates(t *testing.T) {
	store := newTestDBStore(t)
	ctx := context.Background()

	// Simulate an interrupted invocation that left two records behind.
	err := store.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte("token/aaa"), []byte("older")); err != nil {
			return err
		}
		return txn.Set([]byte("token/bbb"), []byte("newer"))
	})
	if err != nil {
		t.Fatalf("seeding records failed: %v", err)
	}

	token, ok, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a token, got none")
	}
	if token != "older" {
		t.Errorf("Read = %q, want first record %q", token, "older")
	}

	if got := countTokenRecords(t, store); got != 1 {
		t.Errorf("record count after dedup = %d, want 1", got)
	}

	// The surviving record is the one that was returned.
	token, ok, err = store.Read(ctx)
	if err != nil {
		t.Fatalf("second Read failed: %v", err)
	}
	if !ok || token != "older" {
		t.Errorf("second Read = (%q, %v), want (%q, true)", token, ok, "older")
	}
}

func TestDBStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewDBStore(dir)
	if err != nil {
		t.Fatalf("NewDBStore failed: %v", err)
	}
	if err := store.Save(ctx, "durable"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewDBStore(dir)
	if err != nil {
		t.Fatalf("reopening store failed: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	token, ok, err := reopened.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !ok || token != "durable" {
		t.Errorf("Read after reopen = (%q, %v), want (%q, true)", token, ok, "durable")
	}
}

func TestDBStoreContextCanceled(t *testing.T) {
	store := newTestDBStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := store.Read(ctx); err == nil {
		t.Error("Read with canceled context should fail")
	}
	if err := store.Save(ctx, "tok"); err == nil {
		t.Error("Save with canceled context should fail")
	}
	if err := store.Clear(ctx); err == nil {
		t.Error("Clear with canceled context should fail")
	}
}

func TestNewDBStoreEmptyDir(t *testing.T) {
	if _, err := NewDBStore(""); err == nil {
		t.Error("expected error for empty directory")
	}
}

package tokenstore

import (
	"context"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore("ridgeline-test", "alice")
	if err != nil {
		t.Fatalf("NewKeyringStore failed: %v", err)
	}
	ctx := context.Background()

	t.Run("read empty", func(t *testing.T) {
		token, ok, err := store.Read(ctx)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if ok {
			t.Errorf("expected no token, got %q", token)
		}
	})

	t.Run("save and read", func(t *testing.T) {
		if err := store.Save(ctx, "tok-abc"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		token, ok, err := store.Read(ctx)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if !ok || token != "tok-abc" {
			t.Errorf("Read = (%q, %v), want (%q, true)", token, ok, "tok-abc")
		}
	})

	t.Run("save replaces", func(t *testing.T) {
		if err := store.Save(ctx, "tok-new"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		token, _, err := store.Read(ctx)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if token != "tok-new" {
			t.Errorf("Read = %q, want %q", token, "tok-new")
		}
	})

	t.Run("clear", func(t *testing.T) {
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
		// Clearing again is idempotent.
		if err := store.Clear(ctx); err != nil {
			t.Errorf("Clear on empty keyring failed: %v", err)
		}
	})
}

func TestNewKeyringStoreValidation(t *testing.T) {
	tests := []struct {
		name    string
		service string
		user    string
	}{
		{name: "empty service", service: "", user: "alice"},
		{name: "empty user", service: "ridgeline-test", user: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewKeyringStore(tt.service, tt.user); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestGrantDepositsOnce(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.Grant(context.Background(), "sess-1", "golden-die", "alice"); err != nil {
		t.Fatalf("grant: %v", err)
	}

	recipient, found, err := store.Recipient(context.Background(), "sess-1", "golden-die")
	if err != nil {
		t.Fatalf("recipient: %v", err)
	}
	if !found {
		t.Fatal("expected grant to exist")
	}
	if recipient != "alice" {
		t.Fatalf("recipient = %q, want alice", recipient)
	}
}

func TestGrantDuplicateIsNoop(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.Grant(context.Background(), "sess-1", "golden-die", "alice"); err != nil {
		t.Fatalf("first grant: %v", err)
	}
	// Same session+prize again, even for another recipient, must not
	// double-deposit or error.
	if err := store.Grant(context.Background(), "sess-1", "golden-die", "bob"); err != nil {
		t.Fatalf("duplicate grant: %v", err)
	}

	recipient, found, err := store.Recipient(context.Background(), "sess-1", "golden-die")
	if err != nil {
		t.Fatalf("recipient: %v", err)
	}
	if !found || recipient != "alice" {
		t.Fatalf("recipient = %q (found=%v), want original alice", recipient, found)
	}
}

func TestGrantDistinctPrizeTypesCoexist(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.Grant(context.Background(), "sess-1", "golden-die", "alice"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := store.Grant(context.Background(), "sess-1", "silver-die", "bob"); err != nil {
		t.Fatalf("second prize grant: %v", err)
	}

	recipient, found, err := store.Recipient(context.Background(), "sess-1", "silver-die")
	if err != nil {
		t.Fatalf("recipient: %v", err)
	}
	if !found || recipient != "bob" {
		t.Fatalf("recipient = %q (found=%v), want bob", recipient, found)
	}
}

func TestRecipientMissingGrant(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	_, found, err := store.Recipient(context.Background(), "sess-none", "golden-die")
	if err != nil {
		t.Fatalf("recipient: %v", err)
	}
	if found {
		t.Fatal("expected no grant")
	}
}

func TestGrantValidatesInput(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.Grant(context.Background(), "", "golden-die", "alice"); err == nil {
		t.Fatal("expected error for empty session id")
	}
	if err := store.Grant(context.Background(), "sess-1", "", "alice"); err == nil {
		t.Fatal("expected error for empty prize type")
	}
	if err := store.Grant(context.Background(), "sess-1", "golden-die", ""); err == nil {
		t.Fatal("expected error for empty recipient id")
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "grants.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

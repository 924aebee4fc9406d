package receipts

import (
	"bytes"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "receipts.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndGet(t *testing.T) {
	store := openTestStore(t)

	key, err := store.Save("receipt.jpg", "image/jpeg", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if key == "" {
		t.Fatal("Expected a non-empty key")
	}

	receipt, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if receipt.FileName != "receipt.jpg" || receipt.ContentType != "image/jpeg" {
		t.Fatalf("Unexpected metadata: %+v", receipt)
	}
	if !bytes.Equal(receipt.Data, []byte("jpeg-bytes")) {
		t.Fatalf("Unexpected data %q", receipt.Data)
	}
	if receipt.Size != int64(len("jpeg-bytes")) {
		t.Fatalf("Unexpected size %d", receipt.Size)
	}
}

func TestGetMissingKey(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Get("no-such-key"); err != ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)

	key, err := store.Save("a.png", "image/png", []byte("png"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(key); err != ErrNotFound {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(key); err != ErrNotFound {
		t.Fatalf("Expected ErrNotFound on double delete, got %v", err)
	}
}

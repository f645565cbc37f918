package storage

import (
	"bytes"
	"path/filepath"
	"testing"
)

// both stores must satisfy the same contract.
func testBlobContract(t *testing.T, blob Blob) {
	t.Helper()

	// Absent key: (nil, nil).
	data, err := blob.Get("missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if data != nil {
		t.Fatalf("missing key: got %q, want nil", data)
	}

	if err := blob.Set("state", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	data, err = blob.Get("state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(data, []byte("v1")) {
		t.Errorf("get: got %q, want %q", data, "v1")
	}

	// Overwrite.
	if err := blob.Set("state", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, _ = blob.Get("state")
	if !bytes.Equal(data, []byte("v2")) {
		t.Errorf("after overwrite: got %q, want %q", data, "v2")
	}
}

func TestFileStore(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	testBlobContract(t, fs)
}

func TestFileStoreRejectsBadKeys(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	for _, key := range []string{"../escape", "a/b", "", "sp ace"} {
		if err := fs.Set(key, []byte("x")); err == nil {
			t.Errorf("key %q should be rejected", key)
		}
		if _, err := fs.Get(key); err == nil {
			t.Errorf("get with key %q should be rejected", key)
		}
	}
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "blobs.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	defer store.Close()
	testBlobContract(t, store)
}

func TestSQLiteStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blobs.db")

	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Set("board.json", []byte(`{"lists":[]}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	store.Close()

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	data, err := reopened.Get("board.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(data, []byte(`{"lists":[]}`)) {
		t.Errorf("got %q after reopen", data)
	}
}

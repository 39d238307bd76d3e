package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndRead(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}

	key, err := store.Save("sessions/abc/run1/buzz-cut.png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if key != "sessions/abc/run1/buzz-cut.png" {
		t.Fatalf("stored key = %q", key)
	}

	got, err := store.Read(key)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if !bytes.Equal(got, []byte("png-bytes")) {
		t.Fatalf("Read returned %q", got)
	}

	if _, err := os.Stat(filepath.Join(store.BasePath(), "sessions", "abc", "run1", "buzz-cut.png")); err != nil {
		t.Fatalf("file missing on disk: %v", err)
	}
}

func TestReadMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if _, err := store.Read("sessions/nope.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read missing key err = %v, want ErrNotFound", err)
	}
}

func TestSaveNormalizesKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}

	key, err := store.Save("/sessions//abc/./img.png", []byte("x"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if key != "sessions/abc/img.png" {
		t.Fatalf("normalized key = %q", key)
	}
}

func TestTraversalKeysRejected(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}

	for _, key := range []string{"", "..", "../evil.png", "a/../../evil.png", "..\\evil.png"} {
		if _, err := store.Save(key, []byte("x")); err == nil {
			t.Fatalf("Save accepted traversal key %q", key)
		}
		if _, err := store.Read(key); err == nil || errors.Is(err, ErrNotFound) {
			t.Fatalf("Read of %q did not fail validation (err = %v)", key, err)
		}
	}
}

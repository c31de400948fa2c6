package evidence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aeroqualify/internal/ports"
)

func TestFileStorePutWritesUnderCARDir(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(Options{Root: root, PublicBaseURL: "https://files.example.com/evidence/"})
	store.now = func() time.Time { return time.UnixMilli(1700000000000) }

	got, err := store.Put(context.Background(), "CAR-1", ports.EvidenceUpload{
		Name: "../training record.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4"),
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if got.Name != "training record.pdf" || got.Size != 8 || got.Type != "application/pdf" || got.Inline {
		t.Fatalf("Put() = %#v", got)
	}
	if got.URL != "https://files.example.com/evidence/CAR-1/1700000000000_training%20record.pdf" {
		t.Fatalf("URL = %q", got.URL)
	}

	data, err := os.ReadFile(filepath.Join(root, "CAR-1", "1700000000000_training record.pdf"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Fatalf("stored = %q", data)
	}
}

func TestFileStoreInlinesWhenWriteFails(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	store := NewFileStore(Options{Root: blocker, MaxInlineBytes: 16})
	got, err := store.Put(context.Background(), "CAR-1", ports.EvidenceUpload{Name: "a.txt", ContentType: "text/plain", Data: []byte("hello")})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if !got.Inline || !strings.HasPrefix(got.URL, "data:text/plain;base64,") {
		t.Fatalf("Put() = %#v", got)
	}

	_, err = store.Put(context.Background(), "CAR-1", ports.EvidenceUpload{Name: "big.bin", Data: make([]byte, 32)})
	if !errors.Is(err, ErrTooLargeToInline) {
		t.Fatalf("Put(big) error = %v", err)
	}
}

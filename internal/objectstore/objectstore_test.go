package objectstore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pdf-rag/internal/config"
)

func TestLocalDownload(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "docs", "2024"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "docs", "2024", "policy.pdf"), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := Open(context.Background(), config.ObjectStoreConfig{Type: "local", Root: root})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	var buf bytes.Buffer
	if err := d.Download(context.Background(), "docs", "2024/policy.pdf", &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "%PDF-1.4" {
		t.Fatalf("got %q", buf.String())
	}

	err = d.Download(context.Background(), "docs", "missing.pdf", &buf)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestLocalRejectsEscapes(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct{ bucket, name string }{
		{"docs", "../../etc/passwd"},
		{"..", "x.pdf"},
		{"", ""},
	} {
		if _, err := l.Path(tc.bucket, tc.name); err == nil {
			t.Errorf("Path(%q, %q) should fail", tc.bucket, tc.name)
		}
	}
}

func TestOpenUnknownType(t *testing.T) {
	if _, err := Open(context.Background(), config.ObjectStoreConfig{Type: "s3"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewLocal(""); err == nil {
		t.Fatal("expected error for empty root")
	}
}

func TestOpenForTriggerWatchReadsLocally(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "docs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "docs", "a.pdf"), []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	trig := config.TriggerConfig{Type: "watch", Watch: config.WatchConfig{Root: root, Bucket: "docs"}}
	d, err := OpenForTrigger(context.Background(), config.ObjectStoreConfig{Type: "gcs"}, trig)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if _, ok := d.(*Local); !ok {
		t.Fatalf("got %T, want *Local", d)
	}

	var buf bytes.Buffer
	if err := d.Download(context.Background(), "docs", "a.pdf", &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "%PDF" {
		t.Errorf("content = %q", buf.String())
	}
}

func TestOpenForTriggerNATSUsesObjectStore(t *testing.T) {
	_, err := OpenForTrigger(context.Background(), config.ObjectStoreConfig{Type: "s3"}, config.TriggerConfig{Type: "nats"})
	if err == nil {
		t.Fatal("expected the configured object store to be used")
	}
}

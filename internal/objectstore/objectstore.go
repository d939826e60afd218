// Package objectstore downloads uploaded objects from GCS or from a local
// directory laid out as <root>/<bucket>/<name>.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"

	"pdf-rag/internal/config"
)

var ErrNotFound = errors.New("objectstore: object not found")

// Downloader copies an object into w.
type Downloader interface {
	Download(ctx context.Context, bucket, name string, w io.Writer) error
	Close() error
}

// Open returns the configured backend.
func Open(ctx context.Context, cfg config.ObjectStoreConfig) (Downloader, error) {
	switch cfg.Type {
	case "gcs":
		return NewGCS(ctx)
	case "local":
		return NewLocal(cfg.Root)
	default:
		return nil, fmt.Errorf("objectstore: unknown type %q", cfg.Type)
	}
}

// OpenForTrigger returns the backend events from trig refer to. Watch
// events name files under the watch root, so they always read locally.
func OpenForTrigger(ctx context.Context, cfg config.ObjectStoreConfig, trig config.TriggerConfig) (Downloader, error) {
	if trig.Type == "watch" {
		return NewLocal(trig.Watch.Root)
	}
	return Open(ctx, cfg)
}

type GCS struct {
	client *storage.Client
}

func NewGCS(ctx context.Context) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("objectstore: new gcs client: %w", err)
	}
	return &GCS{client: client}, nil
}

func (g *GCS) Download(ctx context.Context, bucket, name string, w io.Writer) error {
	r, err := g.client.Bucket(bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: gs://%s/%s", ErrNotFound, bucket, name)
	}
	if err != nil {
		return fmt.Errorf("objectstore: open gs://%s/%s: %w", bucket, name, err)
	}
	defer r.Close()
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("objectstore: read gs://%s/%s: %w", bucket, name, err)
	}
	return nil
}

func (g *GCS) Close() error { return g.client.Close() }

type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("objectstore: local root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Local{root: abs}, nil
}

// Path resolves an object to a file under the root.
func (l *Local) Path(bucket, name string) (string, error) {
	p := filepath.Join(l.root, bucket, filepath.FromSlash(name))
	rel, err := filepath.Rel(l.root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("objectstore: object %s/%s escapes root", bucket, name)
	}
	return p, nil
}

func (l *Local) Download(_ context.Context, bucket, name string, w io.Writer) error {
	p, err := l.Path(bucket, name)
	if err != nil {
		return err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("objectstore: read %s: %w", p, err)
	}
	return nil
}

func (l *Local) Close() error { return nil }

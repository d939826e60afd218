// Package store selects the vector store backend for the shared collection.
package store

import (
	"context"
	"errors"
	"fmt"

	"pdf-rag/internal/chromemdb"
	"pdf-rag/internal/config"
	"pdf-rag/internal/db"
	"pdf-rag/internal/firestoredb"
	"pdf-rag/internal/models"
	"pdf-rag/internal/qdrantdb"
)

var ErrUnknownType = errors.New("store: unknown vector store type")

// VectorStore is the shared collection of chunk records.
type VectorStore interface {
	EnsureCollection(ctx context.Context, dims int) error
	Commit(ctx context.Context, records []models.ChunkRecord) error
	Nearest(ctx context.Context, embedding []float32, k int) ([]models.ChunkRecord, error)
	Close() error
}

var (
	_ VectorStore = (*chromemdb.VectorDBManager)(nil)
	_ VectorStore = (*db.Store)(nil)
	_ VectorStore = (*qdrantdb.Store)(nil)
	_ VectorStore = (*firestoredb.Store)(nil)
)

// Open connects to the configured backend and ensures the collection exists.
func Open(ctx context.Context, cfg *config.Config) (VectorStore, error) {
	vs, err := open(ctx, cfg.VectorStore, cfg.RAG.Collection)
	if err != nil {
		return nil, err
	}
	if err := vs.EnsureCollection(ctx, cfg.RAG.EmbeddingDims); err != nil {
		vs.Close()
		return nil, err
	}
	return vs, nil
}

func open(ctx context.Context, cfg config.VectorStoreConfig, collection string) (VectorStore, error) {
	switch cfg.Type {
	case "chromem":
		return chromemdb.NewVectorDBManager(cfg.Chromem.Path, collection, cfg.Chromem.Persistent, cfg.Chromem.Compress)
	case "pgvector":
		return db.Open(&cfg.Database, collection)
	case "qdrant":
		return qdrantdb.New(cfg.Qdrant.Addr, collection)
	case "firestore":
		return firestoredb.New(ctx, cfg.Firestore.Project, collection)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, cfg.Type)
	}
}

package chromemdb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
)

const sourceKey = "source"

// VectorDBManager encapsulates the chromem-go database operations
type VectorDBManager struct {
	db             *chromem.DB
	collection     *chromem.Collection
	collectionName string
	dbPath         string
}

// NewVectorDBManager opens an in-memory database, or a persistent one at dbPath.
func NewVectorDBManager(dbPath, collectionName string, persistent, compress bool) (*VectorDBManager, error) {
	var db *chromem.DB
	if persistent {
		if err := helper.CreateFolder(dbPath); err != nil {
			return nil, err
		}
		var err error
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	return &VectorDBManager{
		db:             db,
		collectionName: collectionName,
		dbPath:         dbPath,
	}, nil
}

// EnsureCollection creates or loads the collection. chromem infers the
// dimensionality from the first document.
func (m *VectorDBManager) EnsureCollection(_ context.Context, _ int) error {
	_, err := m.getOrCreateCollection()
	return err
}

func (m *VectorDBManager) getOrCreateCollection() (*chromem.Collection, error) {
	if m.collection != nil {
		return m.collection, nil
	}
	c, err := m.db.GetOrCreateCollection(m.collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	m.collection = c
	return c, nil
}

// Commit adds all records in one AddDocuments call.
func (m *VectorDBManager) Commit(ctx context.Context, records []models.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	c, err := m.getOrCreateCollection()
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		id := r.ID
		if id == "" {
			if id, err = helper.GenerateUUID(); err != nil {
				return err
			}
		}
		docs[i] = chromem.Document{
			ID:        id,
			Content:   r.Content,
			Metadata:  map[string]string{sourceKey: r.Source},
			Embedding: r.Embedding,
		}
	}

	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	log.Debug().Int("count", len(docs)).Str("collection", m.collectionName).Msg("Added documents")
	return nil
}

// Nearest returns up to k records ordered by cosine similarity.
func (m *VectorDBManager) Nearest(ctx context.Context, embedding []float32, k int) ([]models.ChunkRecord, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}
	c, err := m.getOrCreateCollection()
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection
	k = min(k, c.Count())
	if k <= 0 {
		return nil, nil
	}

	results, err := c.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	records := make([]models.ChunkRecord, len(results))
	for i, r := range results {
		records[i] = models.ChunkRecord{
			ID:        r.ID,
			Content:   r.Content,
			Source:    r.Metadata[sourceKey],
			Embedding: r.Embedding,
		}
	}
	return records, nil
}

// Count reports the number of documents in the collection.
func (m *VectorDBManager) Count() int {
	if m.collection == nil {
		return 0
	}
	return m.collection.Count()
}

// DeleteCollection drops the collection and its documents.
func (m *VectorDBManager) DeleteCollection() error {
	if err := m.db.DeleteCollection(m.collectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	m.collection = nil
	return nil
}

func (m *VectorDBManager) Close() error { return nil }

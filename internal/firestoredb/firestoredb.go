// Package firestoredb keeps chunk records in a Firestore collection and
// searches them with the native vector index.
package firestoredb

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/models"
)

const embeddingField = "embedding"

// Document is the stored shape of one chunk.
type Document struct {
	Content   string             `firestore:"content"`
	Source    string             `firestore:"source"`
	Embedding firestore.Vector32 `firestore:"embedding"`
}

type Store struct {
	client     *firestore.Client
	collection string
}

// New connects to Firestore in project. The emulator is picked up from
// FIRESTORE_EMULATOR_HOST by the client library.
func New(ctx context.Context, project, collection string) (*Store, error) {
	client, err := firestore.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("firestoredb: new client: %w", err)
	}
	return &Store{client: client, collection: collection}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// EnsureCollection is a no-op: collections are implicit and the vector
// index is provisioned with gcloud.
func (s *Store) EnsureCollection(_ context.Context, dims int) error {
	log.Debug().
		Str("collection", s.collection).
		Int("dims", dims).
		Msg("Firestore vector index must exist on field embedding")
	return nil
}

// Commit writes all records in a single batch. Callers keep batches under
// the 500 write limit.
func (s *Store) Commit(ctx context.Context, records []models.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	col := s.client.Collection(s.collection)
	batch := s.client.Batch()
	for _, r := range records {
		ref := col.NewDoc()
		if r.ID != "" {
			ref = col.Doc(r.ID)
		}
		batch.Set(ref, toDocument(r))
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("firestoredb: commit %d documents: %w", len(records), err)
	}
	return nil
}

// Nearest runs a cosine FindNearest query.
func (s *Store) Nearest(ctx context.Context, embedding []float32, k int) ([]models.ChunkRecord, error) {
	query := s.client.Collection(s.collection).FindNearest(
		embeddingField,
		firestore.Vector32(embedding),
		k,
		firestore.DistanceMeasureCosine,
		nil,
	)
	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestoredb: find nearest: %w", err)
	}

	records := make([]models.ChunkRecord, 0, len(snaps))
	for _, snap := range snaps {
		var doc Document
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestoredb: decode %s: %w", snap.Ref.ID, err)
		}
		records = append(records, fromDocument(snap.Ref.ID, doc))
	}
	return records, nil
}

func toDocument(r models.ChunkRecord) Document {
	return Document{
		Content:   r.Content,
		Source:    r.Source,
		Embedding: firestore.Vector32(r.Embedding),
	}
}

func fromDocument(id string, d Document) models.ChunkRecord {
	return models.ChunkRecord{
		ID:        id,
		Content:   d.Content,
		Source:    d.Source,
		Embedding: []float32(d.Embedding),
	}
}

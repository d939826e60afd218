// Package qdrantdb stores chunk records as Qdrant points over gRPC.
package qdrantdb

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
)

const (
	contentKey = "content"
	sourceKey  = "source"
)

type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// New creates a Store connected to Qdrant at the given gRPC address.
func New(addr, collection string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrantdb: dial %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureCollection creates a cosine collection of the given size if missing.
func (s *Store) EnsureCollection(ctx context.Context, dims int) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("qdrantdb: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrantdb: create collection %s: %w", s.collection, err)
	}
	return nil
}

// Commit upserts all records in one request and waits for it to be applied.
func (s *Store) Commit(ctx context.Context, records []models.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	points, err := toPoints(records)
	if err != nil {
		return err
	}

	wait := true
	_, err = s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrantdb: upsert %d points: %w", len(points), err)
	}
	return nil
}

func toPoints(records []models.ChunkRecord) ([]*pb.PointStruct, error) {
	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		id := r.ID
		if id == "" {
			var err error
			if id, err = helper.GenerateUUID(); err != nil {
				return nil, err
			}
		}
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: id},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Embedding},
				},
			},
			Payload: map[string]*pb.Value{
				contentKey: {Kind: &pb.Value_StringValue{StringValue: r.Content}},
				sourceKey:  {Kind: &pb.Value_StringValue{StringValue: r.Source}},
			},
		}
	}
	return points, nil
}

// Nearest performs a k-NN search.
func (s *Store) Nearest(ctx context.Context, embedding []float32, k int) ([]models.ChunkRecord, error) {
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         embedding,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrantdb: search: %w", err)
	}
	return fromScored(resp.GetResult()), nil
}

func fromScored(points []*pb.ScoredPoint) []models.ChunkRecord {
	records := make([]models.ChunkRecord, len(points))
	for i, p := range points {
		payload := p.GetPayload()
		records[i] = models.ChunkRecord{
			ID:      p.GetId().GetUuid(),
			Content: payload[contentKey].GetStringValue(),
			Source:  payload[sourceKey].GetStringValue(),
		}
	}
	return records
}

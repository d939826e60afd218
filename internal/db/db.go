package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

// Document is one row of the chunk table. The table name is set per query
// so the collection stays configurable.
type Document struct {
	bun.BaseModel `bun:"table:rag_docs,alias:d"`
	ID            int64           `bun:"id,pk,autoincrement"`
	Content       string          `bun:"content,notnull"`
	Source        string          `bun:"source,notnull"`
	Embedding     pgvector.Vector `bun:"embedding,notnull,type:vector"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens a connection pool with pgdriver, or with lib/pq when
// cfg.Driver is "pq".
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db: dsn is required")
	}
	switch cfg.Driver {
	case "", "pgdriver":
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))), nil
	case "pq":
		return sql.Open("postgres", cfg.DSN)
	default:
		return nil, fmt.Errorf("db: unknown driver %q", cfg.Driver)
	}
}

// Store keeps chunk records in a pgvector table.
type Store struct {
	db    *bun.DB
	table string
}

func NewStore(db *bun.DB, table string) *Store {
	return &Store{db: db, table: table}
}

// Open connects using cfg and wraps the pool in a Store.
func Open(cfg *config.DatabaseConfig, table string) (*Store, error) {
	sqldb, err := ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(NewDB(sqldb, cfg.Debug), table), nil
}

// EnsureCollection creates the vector extension and the chunk table.
func (s *Store) EnsureCollection(ctx context.Context, dims int) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("db: create extension: %w", err)
	}
	_, err := s.db.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS ? (id BIGSERIAL PRIMARY KEY, content TEXT NOT NULL, source TEXT NOT NULL, embedding vector("+strconv.Itoa(dims)+") NOT NULL)",
		bun.Ident(s.table),
	)
	if err != nil {
		return fmt.Errorf("db: create table %s: %w", s.table, err)
	}
	return nil
}

// Commit inserts all records in one transaction.
func (s *Store) Commit(ctx context.Context, records []models.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]Document, len(records))
	for i, r := range records {
		docs[i] = Document{
			Content:   r.Content,
			Source:    r.Source,
			Embedding: pgvector.NewVector(r.Embedding),
		}
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&docs).
			ModelTableExpr("?", bun.Ident(s.table)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("db: insert %d documents: %w", len(docs), err)
		}
		return nil
	})
}

// Nearest orders by cosine distance.
func (s *Store) Nearest(ctx context.Context, embedding []float32, k int) ([]models.ChunkRecord, error) {
	var docs []Document
	if err := s.nearestQuery(&docs, embedding, k).Scan(ctx); err != nil {
		return nil, fmt.Errorf("db: search: %w", err)
	}

	records := make([]models.ChunkRecord, len(docs))
	for i, d := range docs {
		records[i] = models.ChunkRecord{
			ID:      strconv.FormatInt(d.ID, 10),
			Content: d.Content,
			Source:  d.Source,
		}
	}
	return records, nil
}

func (s *Store) nearestQuery(docs *[]Document, embedding []float32, k int) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(docs).
		ModelTableExpr("? AS d", bun.Ident(s.table)).
		Column("id", "content", "source").
		OrderExpr("embedding <=> ?", pgvector.NewVector(embedding)).
		Limit(k)
}

// DropDocuments drops the chunk table.
func (s *Store) DropDocuments(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS ?", bun.Ident(s.table))
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

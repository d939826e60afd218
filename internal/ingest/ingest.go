// Package ingest turns an uploaded PDF into chunk records in the shared
// collection.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"pdf-rag/internal/config"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/models"
	"pdf-rag/internal/parser"
)

// MaxBatchSize caps the records written per commit. Firestore rejects
// batches of more than 500 writes.
const MaxBatchSize = 400

type Downloader interface {
	Download(ctx context.Context, bucket, name string, w io.Writer) error
}

type Committer interface {
	Commit(ctx context.Context, records []models.ChunkRecord) error
}

// Extractor returns the page texts of the PDF at path.
type Extractor func(path string) ([]models.Page, error)

// Deps are the clients an Ingestor needs. They are built once per process.
type Deps struct {
	Objects  Downloader
	Embedder embeddings.Embedder
	Store    Committer
	Extract  Extractor
}

type Option func(*Ingestor)

// WithTempDir sets where downloads are staged. Defaults to os.TempDir.
func WithTempDir(dir string) Option {
	return func(i *Ingestor) { i.tempDir = dir }
}

type Ingestor struct {
	deps    Deps
	cfg     config.RAGConfig
	tempDir string
}

// Result summarises one Process call.
type Result struct {
	Source  string `json:"source"`
	Skipped bool   `json:"skipped"`
	Chunks  int    `json:"chunks"`
	Batches int    `json:"batches"`
}

func New(deps Deps, cfg config.RAGConfig, opts ...Option) *Ingestor {
	if deps.Extract == nil {
		deps.Extract = parser.ExtractPDF
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	i := &Ingestor{deps: deps, cfg: cfg}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IsPDF reports whether the object name ends in .pdf, ignoring case.
func IsPDF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), models.PDFExtension)
}

// Process ingests the object named by ev. Non-PDF objects are skipped
// without side effects. Batches committed before a failing batch are kept.
func (i *Ingestor) Process(ctx context.Context, ev models.StorageEvent) (*Result, error) {
	res := &Result{Source: ev.Name}
	logger := log.With().Str("bucket", ev.Bucket).Str("file", ev.Name).Logger()

	if !IsPDF(ev.Name) {
		logger.Info().Msg("Skipping non-PDF file")
		res.Skipped = true
		return res, nil
	}

	tmpPath, err := i.download(ctx, ev)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", tmpPath).Msg("Failed to remove temp file")
		}
	}()

	pages, err := i.deps.Extract(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("ingest: extract %s: %w", ev.Name, err)
	}
	chunks, err := parser.ChunkPages(pages, i.cfg)
	if err != nil {
		return nil, fmt.Errorf("ingest: chunk %s: %w", ev.Name, err)
	}
	if len(chunks) == 0 {
		logger.Warn().Int("pages", len(pages)).Msg("No text extracted")
		return res, nil
	}

	records, err := embedding.GenerateEmbeddings(ctx, i.deps.Embedder, ev.Name, chunks)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	res.Chunks = len(records)

	for start := 0; start < len(records); start += i.cfg.BatchSize {
		end := min(start+i.cfg.BatchSize, len(records))
		if err := i.deps.Store.Commit(ctx, records[start:end]); err != nil {
			return res, fmt.Errorf("ingest: commit batch %d of %s: %w", res.Batches+1, ev.Name, err)
		}
		res.Batches++
	}

	logger.Info().
		Int("pages", len(pages)).
		Int("chunks", res.Chunks).
		Int("batches", res.Batches).
		Msg("Ingested document")
	return res, nil
}

// Handle processes ev and logs the outcome. It is the callback for the
// event triggers.
func (i *Ingestor) Handle(ctx context.Context, ev models.StorageEvent) {
	if _, err := i.Process(ctx, ev); err != nil {
		log.Error().Err(err).Str("bucket", ev.Bucket).Str("file", ev.Name).Msg("Ingestion failed")
	}
}

func (i *Ingestor) download(ctx context.Context, ev models.StorageEvent) (string, error) {
	f, err := os.CreateTemp(i.tempDir, "ingest-*"+models.PDFExtension)
	if err != nil {
		return "", fmt.Errorf("ingest: create temp file: %w", err)
	}
	tmpPath := f.Name()

	err = i.deps.Objects.Download(ctx, ev.Bucket, ev.Name, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ingest: download %s/%s: %w", ev.Bucket, ev.Name, err)
	}
	return tmpPath, nil
}

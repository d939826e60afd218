package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/googleai/vertex"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

// NewEmbedder creates an embedder for the configured provider.
func NewEmbedder(ctx context.Context, cfg config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().
		Str("provider", cfg.Provider).
		Str("base_url", cfg.BaseURL).
		Str("model", cfg.Model).
		Msg("Creating embedder")

	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding: init %s client: %w", cfg.Provider, err)
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("embedding: create embedder: %w", err)
	}
	return embedder, nil
}

func newClient(ctx context.Context, cfg config.LLMConfig) (embeddings.EmbedderClient, error) {
	switch cfg.Provider {
	case "openai":
		opts := []openai.Option{openai.WithEmbeddingModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Key != "" {
			opts = append(opts, openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")))
		}
		return openai.New(opts...)
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		return ollama.New(opts...)
	case "vertex":
		return vertex.New(ctx,
			googleai.WithCloudProject(cfg.Project),
			googleai.WithCloudLocation(cfg.Location),
			googleai.WithDefaultEmbeddingModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// GenerateEmbeddings embeds all chunks with a single EmbedDocuments call and
// returns one record per chunk, tagged with source.
func GenerateEmbeddings(ctx context.Context, embedder embeddings.Embedder, source string, chunks []models.Chunk) ([]models.ChunkRecord, error) {
	if len(chunks) == 0 {
		log.Info().Str("source", source).Msg("No chunks generated from content")
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding: embed %d chunks: %w", len(texts), err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	records := make([]models.ChunkRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = models.ChunkRecord{
			Content:   chunk.Content,
			Source:    source,
			Embedding: vectors[i],
		}
	}
	return records, nil
}

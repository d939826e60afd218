package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"pdf-rag/internal/config"
	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/models"
)

var ErrEmptyQuery = errors.New("rag: empty query")

// Searcher is the read side of the shared collection.
type Searcher interface {
	Nearest(ctx context.Context, embedding []float32, k int) ([]models.ChunkRecord, error)
}

// RAG answers questions from the nearest chunks. It keeps no state
// between calls.
type RAG struct {
	embedder    embeddings.Embedder
	store       Searcher
	llm         llms.Model
	prompt      prompts.PromptTemplate
	topK        int
	temperature float64
}

func NewRAG(embedder embeddings.Embedder, store Searcher, llm llms.Model, cfg config.RAGConfig) *RAG {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	return &RAG{
		embedder:    embedder,
		store:       store,
		llm:         llm,
		prompt:      prompts.NewPromptTemplate(models.QueryPromptTemplate, []string{"context", "question"}),
		topK:        topK,
		temperature: cfg.Temperature,
	}
}

// Query embeds the question, retrieves the nearest chunks and asks the model
// to answer from them.
func (r *RAG) Query(ctx context.Context, query string) (*models.QueryResponse, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("rag: embed query: %w", err)
	}

	docs, err := r.store.Nearest(ctx, queryEmbedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("rag: search: %w", err)
	}

	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}
	contextText := strings.Join(contents, models.ContextSeparator)

	prompt, err := r.prompt.Format(map[string]any{
		"context":  contextText,
		"question": query,
	})
	if err != nil {
		return nil, fmt.Errorf("rag: format prompt: %w", err)
	}

	answer, err := llmservice.GenerateContent(ctx, r.llm, prompt, r.temperature)
	if err != nil {
		return nil, fmt.Errorf("rag: generate: %w", err)
	}

	log.Debug().Int("chunks", len(docs)).Int("answer_len", len(answer)).Msg("Answered query")
	return &models.QueryResponse{Answer: answer, ContextUsed: contextText}, nil
}

// Package testutil holds deterministic stand-ins for the embedding and
// generation providers.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// KeywordEmbedder maps text to a vector of keyword counts. The last
// dimension is a constant so no vector is ever zero.
type KeywordEmbedder struct {
	Vocabulary []string
	Err        error

	mu         sync.Mutex
	docCalls   int
	queryCalls int
}

func NewKeywordEmbedder(vocabulary ...string) *KeywordEmbedder {
	return &KeywordEmbedder{Vocabulary: vocabulary}
}

func (e *KeywordEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.docCalls++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.vector(text)
	}
	return vectors, nil
}

func (e *KeywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.queryCalls++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	return e.vector(text), nil
}

// Dims is the length of every vector this embedder returns.
func (e *KeywordEmbedder) Dims() int { return len(e.Vocabulary) + 1 }

func (e *KeywordEmbedder) DocumentCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.docCalls
}

func (e *KeywordEmbedder) QueryCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queryCalls
}

func (e *KeywordEmbedder) vector(text string) []float32 {
	text = strings.ToLower(text)
	v := make([]float32, e.Dims())
	for i, word := range e.Vocabulary {
		v[i] = float32(strings.Count(text, strings.ToLower(word)))
	}
	v[len(v)-1] = 0.01
	return v
}

// EchoLLM answers every prompt with Answer and records what it was asked.
type EchoLLM struct {
	Answer string
	Err    error

	mu          sync.Mutex
	calls       int
	prompts     []string
	temperature float64
}

func (m *EchoLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	var prompt strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				prompt.WriteString(text.Text)
			}
		}
	}

	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt.String())
	m.temperature = opts.Temperature
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.Answer}},
	}, nil
}

func (m *EchoLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m *EchoLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastPrompt returns the text of the most recent request.
func (m *EchoLLM) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *EchoLLM) Temperature() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.temperature
}

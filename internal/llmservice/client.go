package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/googleai/vertex"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"pdf-rag/internal/config"
)

// New returns a generative model for the configured provider.
func New(ctx context.Context, llmConfig config.LLMConfig) (llms.Model, error) {
	log.Debug().
		Str("provider", llmConfig.Provider).
		Str("model", llmConfig.Model).
		Msg("Creating llm client")

	switch llmConfig.Provider {
	case "openai":
		opts := []openai.Option{openai.WithModel(llmConfig.Model)}
		if llmConfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
		}
		if llmConfig.Key != "" {
			opts = append(opts, openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")))
		}
		return openai.New(opts...)
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
		if llmConfig.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
		}
		return ollama.New(opts...)
	case "vertex":
		return vertex.New(ctx,
			googleai.WithCloudProject(llmConfig.Project),
			googleai.WithCloudLocation(llmConfig.Location),
			googleai.WithDefaultModel(llmConfig.Model),
		)
	default:
		return nil, fmt.Errorf("llmservice: unknown provider %q", llmConfig.Provider)
	}
}

// GenerateContent sends prompt as a single human message and returns the
// first choice.
func GenerateContent(ctx context.Context, llm llms.Model, prompt string, temperature float64) (string, error) {
	msgContent := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	res, err := llm.GenerateContent(ctx, msgContent, llms.WithTemperature(temperature))
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("llmservice: empty response")
	}
	return res.Choices[0].Content, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"pdf-rag/internal/config"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/helper"
	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/rag"
	"pdf-rag/internal/server"
	"pdf-rag/internal/store"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to the config file")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	helper.SetupLogger(cfg.Log, os.Stdout)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := embedding.NewEmbedder(ctx, cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating embedder")
	}
	llm, err := llmservice.New(ctx, cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating LLM client")
	}
	vs, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("type", cfg.VectorStore.Type).Msg("Error opening vector store")
	}
	defer vs.Close()

	srv := server.NewServer(rag.NewRAG(embedder, vs, llm, cfg.RAG), &cfg.Server)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Query service stopped")
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during shutdown")
		}
	}
}

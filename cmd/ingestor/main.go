package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"pdf-rag/internal/config"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/helper"
	"pdf-rag/internal/ingest"
	"pdf-rag/internal/models"
	"pdf-rag/internal/objectstore"
	"pdf-rag/internal/parser"
	"pdf-rag/internal/store"
	"pdf-rag/internal/trigger"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to the config file")
	filePath := flag.String("file", "", "Ingest a local PDF file")
	dryRun := flag.Bool("dry-run", false, "With -file, print the chunks instead of storing them")
	bucket := flag.String("bucket", "", "Bucket of a single object to ingest")
	name := flag.String("name", "", "Name of a single object to ingest")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	helper.SetupLogger(cfg.Log, os.Stdout)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	if *filePath != "" && *dryRun {
		chunks, err := parser.ParsePDF(*filePath, cfg.RAG)
		if err != nil {
			log.Fatal().Err(err).Str("file", *filePath).Msg("Error parsing file")
		}
		helper.PrettyPrint(os.Stdout, chunks)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var objects objectstore.Downloader
	if *filePath != "" {
		objects, err = objectstore.NewLocal(filepath.Dir(*filePath))
	} else {
		objects, err = objectstore.OpenForTrigger(ctx, cfg.ObjectStore, cfg.Trigger)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening object store")
	}
	defer objects.Close()

	embedder, err := embedding.NewEmbedder(ctx, cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating embedder")
	}
	vs, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("type", cfg.VectorStore.Type).Msg("Error opening vector store")
	}
	defer vs.Close()

	ing := ingest.New(ingest.Deps{Objects: objects, Embedder: embedder, Store: vs}, cfg.RAG)

	switch {
	case *filePath != "":
		runOnce(ctx, ing, models.StorageEvent{Name: filepath.Base(*filePath)})
	case *bucket != "" || *name != "":
		runOnce(ctx, ing, models.StorageEvent{Bucket: *bucket, Name: *name})
	default:
		listen(ctx, cfg.Trigger, ing)
	}
}

func runOnce(ctx context.Context, ing *ingest.Ingestor, ev models.StorageEvent) {
	res, err := ing.Process(ctx, ev)
	if err != nil {
		log.Fatal().Err(err).Str("file", ev.Name).Msg("Ingestion failed")
	}
	helper.PrettyPrint(os.Stdout, res)
}

func listen(ctx context.Context, cfg config.TriggerConfig, ing *ingest.Ingestor) {
	switch cfg.Type {
	case "nats":
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("pdf-rag-ingestor"))
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.NATS.URL).Msg("Error connecting to NATS")
		}
		defer nc.Drain()

		sub, err := trigger.Subscribe(nc, cfg.NATS.Subject, cfg.NATS.Queue, ing.Handle)
		if err != nil {
			log.Fatal().Err(err).Msg("Error subscribing")
		}
		defer sub.Unsubscribe()

		log.Info().Str("subject", cfg.NATS.Subject).Str("queue", cfg.NATS.Queue).Msg("Waiting for storage events")
		<-ctx.Done()

	case "watch":
		w := trigger.NewWatcher(cfg.Watch.Root, cfg.Watch.Bucket, trigger.WithDebounce(cfg.Watch.Debounce))
		if err := w.Run(ctx, ing.Handle); err != nil {
			log.Fatal().Err(err).Msg("Watcher stopped")
		}

	default:
		log.Fatal().Str("type", cfg.Type).Msg("Unknown trigger type")
	}
	log.Info().Msg("Shutting down")
}

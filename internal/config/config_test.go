package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GCP_PROJECT", "")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RAG.Collection != "rag_docs" {
		t.Errorf("collection = %q, want rag_docs", cfg.RAG.Collection)
	}
	if cfg.RAG.ChunkSize != 1000 || cfg.RAG.ChunkOverlap != 100 {
		t.Errorf("chunking = %d/%d, want 1000/100", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.BatchSize != 400 {
		t.Errorf("batch size = %d, want 400", cfg.RAG.BatchSize)
	}
	if cfg.RAG.TopK != 5 {
		t.Errorf("top k = %d, want 5", cfg.RAG.TopK)
	}
	if cfg.RAG.Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", cfg.RAG.Temperature)
	}
	if cfg.EmbedLLM.Model != "text-embedding-004" {
		t.Errorf("embed model = %q", cfg.EmbedLLM.Model)
	}
	if cfg.LLM.Model != "gemini-1.5-flash" {
		t.Errorf("llm model = %q", cfg.LLM.Model)
	}
	if cfg.Server.RequestTimeout != 60*time.Second {
		t.Errorf("request timeout = %v", cfg.Server.RequestTimeout)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
log:
  level: debug
server:
  port: 9000
llm:
  provider: ollama
  model: llama3
rag:
  chunk_size: 500
  splitter: recursive
vector_store:
  type: chromem
  chromem:
    persistent: true
trigger:
  type: watch
  watch:
    root: /tmp/buckets
    bucket: docs
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GCP_PROJECT", "my-project")
	t.Setenv("PORT", "8081")
	t.Setenv("OLLAMA_URL", "http://ollama:11434")
	t.Setenv("RAG_COLLECTION", "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("port = %d, want env override 8081", cfg.Server.Port)
	}
	if cfg.RAG.ChunkSize != 500 || cfg.RAG.ChunkOverlap != 100 {
		t.Errorf("chunking = %d/%d", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.Splitter != "recursive" {
		t.Errorf("splitter = %q", cfg.RAG.Splitter)
	}
	if cfg.LLM.Provider != "ollama" || cfg.LLM.BaseURL != "http://ollama:11434" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.EmbedLLM.Provider != "vertex" || cfg.EmbedLLM.Project != "my-project" {
		t.Errorf("embed llm = %+v", cfg.EmbedLLM)
	}
	if cfg.VectorStore.Firestore.Project != "my-project" {
		t.Errorf("firestore project = %q", cfg.VectorStore.Firestore.Project)
	}
	if cfg.VectorStore.Type != "chromem" || !cfg.VectorStore.Chromem.Persistent {
		t.Errorf("vector store = %+v", cfg.VectorStore)
	}
	if cfg.Trigger.Watch.Bucket != "docs" || cfg.Trigger.Watch.Debounce == 0 {
		t.Errorf("watch = %+v", cfg.Trigger.Watch)
	}
}

func TestLoadConfigKeepsExplicitZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
rag:
  chunk_overlap: 0
  temperature: 0
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RAG.ChunkOverlap != 0 {
		t.Errorf("chunk overlap = %d, want 0", cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", cfg.RAG.Temperature)
	}
	if cfg.RAG.ChunkSize != 1000 || cfg.RAG.TopK != 5 {
		t.Errorf("unset keys lost their defaults: %+v", cfg.RAG)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("rag: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"pdf-rag/internal/models"
)

const DefaultPath = "./configs/config.yaml"

type Config struct {
	Log         LogConfig         `yaml:"log"`
	Server      ServerConfig      `yaml:"server"`
	EmbedLLM    LLMConfig         `yaml:"embed_llm"`
	LLM         LLMConfig         `yaml:"llm"`
	RAG         RAGConfig         `yaml:"rag"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	Trigger     TriggerConfig     `yaml:"trigger"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LLMConfig selects a langchaingo provider. Provider is one of
// "vertex", "openai" or "ollama".
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
	Project  string `yaml:"project"`
	Location string `yaml:"location"`
}

type RAGConfig struct {
	Collection    string  `yaml:"collection"`
	ChunkSize     int     `yaml:"chunk_size"`
	ChunkOverlap  int     `yaml:"chunk_overlap"`
	Splitter      string  `yaml:"splitter"`
	BatchSize     int     `yaml:"batch_size"`
	TopK          int     `yaml:"top_k"`
	Temperature   float64 `yaml:"temperature"`
	EmbeddingDims int     `yaml:"embedding_dims"`
}

type VectorStoreConfig struct {
	Type      string          `yaml:"type"`
	Database  DatabaseConfig  `yaml:"database"`
	Chromem   ChromemConfig   `yaml:"chromem"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Firestore FirestoreConfig `yaml:"firestore"`
}

// DatabaseConfig is used by the pgvector store. Driver is "pgdriver" or "pq".
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
	Debug  bool   `yaml:"debug"`
}

type ChromemConfig struct {
	Path       string `yaml:"path"`
	Persistent bool   `yaml:"persistent"`
	Compress   bool   `yaml:"compress"`
}

type QdrantConfig struct {
	Addr string `yaml:"addr"`
}

type FirestoreConfig struct {
	Project string `yaml:"project"`
}

// ObjectStoreConfig is "gcs" or "local". Local objects live at Root/<bucket>/<name>.
type ObjectStoreConfig struct {
	Type string `yaml:"type"`
	Root string `yaml:"root"`
}

type TriggerConfig struct {
	Type  string      `yaml:"type"`
	NATS  NATSConfig  `yaml:"nats"`
	Watch WatchConfig `yaml:"watch"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Queue   string `yaml:"queue"`
}

type WatchConfig struct {
	Root     string        `yaml:"root"`
	Bucket   string        `yaml:"bucket"`
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// LoadConfig reads the YAML file at path over the defaults and then applies
// environment overrides. Keys set in the file win, including explicit zeros
// such as chunk_overlap: 0. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}
	cfg.applyEnv()
	return &cfg, nil
}

// ApplyDefaults fills zero values. It is meant for configs built in code;
// LoadConfig starts from Default instead.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 60 * time.Second
	}

	c.EmbedLLM.applyDefaults("text-embedding-004")
	c.LLM.applyDefaults("gemini-1.5-flash")

	if c.RAG.Collection == "" {
		c.RAG.Collection = models.DefaultCollection
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = 1000
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = 100
	}
	if c.RAG.Splitter == "" {
		c.RAG.Splitter = "sliding"
	}
	if c.RAG.BatchSize == 0 {
		c.RAG.BatchSize = 400
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = 5
	}
	if c.RAG.Temperature == 0 {
		c.RAG.Temperature = 0.2
	}
	if c.RAG.EmbeddingDims == 0 {
		c.RAG.EmbeddingDims = 768
	}

	if c.VectorStore.Type == "" {
		c.VectorStore.Type = "firestore"
	}
	if c.VectorStore.Database.Driver == "" {
		c.VectorStore.Database.Driver = "pgdriver"
	}
	if c.VectorStore.Chromem.Path == "" {
		c.VectorStore.Chromem.Path = "./chromemdb"
	}
	if c.VectorStore.Qdrant.Addr == "" {
		c.VectorStore.Qdrant.Addr = "localhost:6334"
	}

	if c.ObjectStore.Type == "" {
		c.ObjectStore.Type = "gcs"
	}

	if c.Trigger.Type == "" {
		c.Trigger.Type = "nats"
	}
	if c.Trigger.NATS.URL == "" {
		c.Trigger.NATS.URL = "nats://127.0.0.1:4222"
	}
	if c.Trigger.NATS.Subject == "" {
		c.Trigger.NATS.Subject = "storage.objects.finalized"
	}
	if c.Trigger.NATS.Queue == "" {
		c.Trigger.NATS.Queue = "ingestor"
	}
	if c.Trigger.Watch.Root == "" {
		c.Trigger.Watch.Root = "./objects"
	}
	if c.Trigger.Watch.Bucket == "" {
		c.Trigger.Watch.Bucket = "docs"
	}
	if c.Trigger.Watch.Debounce == 0 {
		c.Trigger.Watch.Debounce = 400 * time.Millisecond
	}
}

func (l *LLMConfig) applyDefaults(model string) {
	if l.Provider == "" {
		l.Provider = "vertex"
	}
	if l.Model == "" {
		l.Model = model
	}
	if l.Location == "" {
		l.Location = "us-central1"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GCP_PROJECT"); v != "" {
		c.EmbedLLM.Project = v
		c.LLM.Project = v
		c.VectorStore.Firestore.Project = v
	}
	if v := os.Getenv("RAG_COLLECTION"); v != "" {
		c.RAG.Collection = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.VectorStore.Database.DSN = v
	}
	if v := os.Getenv("QDRANT_ADDR"); v != "" {
		c.VectorStore.Qdrant.Addr = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.Trigger.NATS.URL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if c.EmbedLLM.Key == "" {
			c.EmbedLLM.Key = v
		}
		if c.LLM.Key == "" {
			c.LLM.Key = v
		}
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		if c.EmbedLLM.Provider == "ollama" {
			c.EmbedLLM.BaseURL = v
		}
		if c.LLM.Provider == "ollama" {
			c.LLM.BaseURL = v
		}
	}
}

package models

// Page is the plain text of a single PDF page, 1-based.
type Page struct {
	Number int
	Text   string
}

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Content    string `json:"content"`
	PageNumber int    `json:"page_number"`
	ChunkID    int    `json:"chunk_id"`
}

// ChunkRecord is one row of the shared collection.
type ChunkRecord struct {
	ID        string
	Content   string
	Source    string
	Embedding []float32
}

package parser

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

func TestChunkContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		max     int
		overlap int
		want    []string
	}{
		{name: "empty", content: "", max: 10, overlap: 2, want: nil},
		{name: "whitespace only", content: " \n\t ", max: 10, overlap: 2, want: nil},
		{name: "zero window", content: "hello", max: 0, overlap: 0, want: nil},
		{name: "fits in one chunk", content: "  hello world  ", max: 20, overlap: 5, want: []string{"hello world"}},
		{name: "hard split with overlap", content: "abcdefghij", max: 4, overlap: 1, want: []string{"abcd", "defg", "ghij"}},
		{
			name:    "breaks on space near window end",
			content: strings.Repeat("a", 18) + " " + strings.Repeat("b", 10),
			max:     20,
			overlap: 0,
			want:    []string{strings.Repeat("a", 18), strings.Repeat("b", 10)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunkContent(tt.content, tt.max, tt.overlap)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("chunkContent(%q, %d, %d) = %q, want %q", tt.content, tt.max, tt.overlap, got, tt.want)
			}
		})
	}
}

func TestChunkContentDefaultWindow(t *testing.T) {
	content := strings.Repeat("abcdefghi ", 250)

	chunks := chunkContent(content, 1000, 100)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 1000 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-50:]
		if !strings.Contains(chunks[i], tail) {
			t.Errorf("chunk %d does not overlap the previous chunk", i)
		}
	}

	again := chunkContent(content, 1000, 100)
	if !reflect.DeepEqual(chunks, again) {
		t.Fatal("chunking is not deterministic")
	}
}

func TestChunkContentCountsRunes(t *testing.T) {
	content := strings.Repeat("é", 1500)
	chunks := chunkContent(content, 1000, 100)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if n := utf8.RuneCountInString(chunks[0]); n != 1000 {
		t.Errorf("first chunk has %d runes, want 1000", n)
	}
	if n := utf8.RuneCountInString(chunks[1]); n != 600 {
		t.Errorf("second chunk has %d runes, want 600", n)
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid utf-8", i)
		}
	}
}

func TestChunkPages(t *testing.T) {
	pages := []models.Page{
		{Number: 1, Text: "abcdefghij"},
		{Number: 2, Text: "   "},
		{Number: 3, Text: "xyz"},
	}
	cfg := config.RAGConfig{ChunkSize: 4, ChunkOverlap: 1, Splitter: SplitterSliding}

	chunks, err := ChunkPages(pages, cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := []models.Chunk{
		{Content: "abcd", PageNumber: 1, ChunkID: 1},
		{Content: "defg", PageNumber: 1, ChunkID: 2},
		{Content: "ghij", PageNumber: 1, ChunkID: 3},
		{Content: "xyz", PageNumber: 3, ChunkID: 1},
	}
	if !reflect.DeepEqual(chunks, want) {
		t.Fatalf("got %+v, want %+v", chunks, want)
	}
}

func TestChunkPagesRecursive(t *testing.T) {
	text := strings.Repeat("The refund policy allows returns within thirty days. ", 60)
	cfg := config.RAGConfig{ChunkSize: 200, ChunkOverlap: 20, Splitter: SplitterRecursive}

	chunks, err := ChunkPages([]models.Page{{Number: 1, Text: text}, {Number: 2, Text: ""}}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.PageNumber != 1 {
			t.Errorf("unexpected page %d", c.PageNumber)
		}
		if utf8.RuneCountInString(c.Content) > 200 {
			t.Errorf("chunk exceeds window: %d runes", utf8.RuneCountInString(c.Content))
		}
	}
}

func TestChunkPagesUnknownSplitter(t *testing.T) {
	_, err := ChunkPages([]models.Page{{Number: 1, Text: "x"}}, config.RAGConfig{ChunkSize: 10, Splitter: "markdown"})
	if err == nil {
		t.Fatal("expected error for unknown splitter")
	}
}

func TestExtractPDFErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ExtractPDF(filepath.Join(dir, "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}

	bogus := filepath.Join(dir, "bogus.pdf")
	if err := os.WriteFile(bogus, []byte("not a pdf at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ExtractPDF(bogus); err == nil {
		t.Error("expected error for non-pdf content")
	}
}

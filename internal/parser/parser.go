package parser

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/tmc/langchaingo/textsplitter"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

const (
	SplitterSliding   = "sliding"
	SplitterRecursive = "recursive"
)

// ParsePDF extracts the pages of the PDF at filePath and splits each page
// into chunks according to cfg.
func ParsePDF(filePath string, cfg config.RAGConfig) ([]models.Chunk, error) {
	pages, err := ExtractPDF(filePath)
	if err != nil {
		return nil, err
	}
	return ChunkPages(pages, cfg)
}

// ExtractPDF returns the plain text of every page, in page order.
func ExtractPDF(filePath string) (pages []models.Page, err error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// ledongthuc/pdf panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("failed to read pdf %s: %v", filePath, r)
		}
	}()

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf %s: %w", filePath, err)
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		pages = append(pages, models.Page{Number: i, Text: text})
	}
	return pages, nil
}

// ChunkPages splits every page independently. ChunkID restarts at 1 on each page.
func ChunkPages(pages []models.Page, cfg config.RAGConfig) ([]models.Chunk, error) {
	split, err := splitFunc(cfg)
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for _, page := range pages {
		parts, err := split(page.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %w", page.Number, err)
		}
		chunks = append(chunks, getChunks(parts, page.Number)...)
	}
	return chunks, nil
}

func splitFunc(cfg config.RAGConfig) (func(string) ([]string, error), error) {
	switch cfg.Splitter {
	case "", SplitterSliding:
		return func(text string) ([]string, error) {
			return chunkContent(text, cfg.ChunkSize, cfg.ChunkOverlap), nil
		}, nil
	case SplitterRecursive:
		splitter := textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		)
		return func(text string) ([]string, error) {
			if strings.TrimSpace(text) == "" {
				return nil, nil
			}
			return splitter.SplitText(text)
		}, nil
	default:
		return nil, fmt.Errorf("unknown splitter %q", cfg.Splitter)
	}
}

// chunk content into chunks of at most maxChars runes, each sharing
// overlapChars runes with the previous one
func chunkContent(content string, maxChars, overlapChars int) []string {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	runes := []rune(strings.TrimSpace(content))
	n := len(runes)
	if n == 0 {
		return nil
	}
	if n <= maxChars {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < n {
		end := min(start+maxChars, n)

		// prefer to break on whitespace or a full stop in the last 10% of the window
		if end < n {
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if unicode.IsSpace(runes[i]) || runes[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= n {
			break
		}

		next := end - overlapChars
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func getChunks(parts []string, pageNumber int) []models.Chunk {
	var chunks []models.Chunk
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Content:    part,
			PageNumber: pageNumber,
			ChunkID:    len(chunks) + 1,
		})
	}
	return chunks
}

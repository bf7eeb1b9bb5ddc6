// Package chunker splits page text into bounded, overlapping segments.
package chunker

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"voicekb/internal/domain"
	"voicekb/internal/port"
)

// Separator priority: paragraph break, line break, sentence end, word
// boundary, then single characters as a last resort.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

var _ port.Chunker = (*Recursive)(nil)

// Recursive splits text on the strongest boundary that fits the size
// budget, falling back to weaker ones per segment.
type Recursive struct {
	size     int
	overlap  int
	splitter textsplitter.RecursiveCharacter
}

// NewRecursive creates a chunker with the given size budget (characters)
// and overlap between adjacent chunks.
func NewRecursive(size, overlap int) (*Recursive, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, size)
	}

	return &Recursive{
		size:    size,
		overlap: overlap,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators(separators),
		),
	}, nil
}

// Chunk splits the document's pages. Ordinals run sequentially across the
// whole document; each chunk inherits the metadata of its page.
func (c *Recursive) Chunk(doc domain.Document, pages []domain.Page) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	index := 0

	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}

		parts, err := c.splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("split page %d: %w", page.Number, err)
		}

		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				DocID:      doc.ID,
				Index:      index,
				Content:    part,
				Source:     doc.Source,
				FileType:   doc.FileType,
				Page:       page.Number,
				TotalPages: page.Total,
			})
			index++
		}
	}

	if len(chunks) == 0 {
		return nil, domain.ErrNoExtractableText
	}
	return chunks, nil
}

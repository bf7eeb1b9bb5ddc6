package port

import "voicekb/internal/domain"

// Chunker splits extracted pages into bounded, overlapping segments.
type Chunker interface {
	// Chunk produces the document's chunks in order. Ordinals are assigned
	// sequentially across all pages, not restarted per page, and each chunk
	// narrows the metadata of the page it came from.
	Chunk(doc domain.Document, pages []domain.Page) ([]domain.Chunk, error)
}

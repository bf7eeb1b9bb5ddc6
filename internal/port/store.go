package port

import (
	"context"

	"voicekb/internal/domain"
)

// DocumentStore persists documents, chunks and their embedding vectors, and
// answers nearest-neighbour queries. Implementations must be safe for
// concurrent use; only the store touches persisted records.
type DocumentStore interface {
	// PutDocument upserts document metadata. Idempotent on the document ID.
	PutDocument(ctx context.Context, doc domain.Document) error

	// GetDocument returns one document's metadata, or
	// domain.ErrDocumentNotFound.
	GetDocument(ctx context.Context, id string) (domain.Document, error)

	// PutChunks bulk-writes chunk records with their vectors, in order.
	// Writes are committed in store-defined batches, each batch before the
	// next starts; a mid-write failure leaves earlier batches committed.
	// Chunk keys are idempotent, so retrying a failed ingestion is safe.
	PutChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error

	// DeleteDocument removes every chunk of the document, then its metadata
	// record. Zero matching chunks is a no-op, not an error.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents; an empty store yields an empty
	// slice.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// Nearest returns up to k chunks ranked by ascending cosine distance to
	// the query vector. Ties break on ascending chunk key. Fewer than k
	// results are returned when the store holds fewer chunks; an empty
	// store yields an empty result.
	Nearest(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error)

	Close() error
}

package port

import "context"

// Embedder generates fixed-dimension vectors for passages and queries.
type Embedder interface {
	// EmbedPassages embeds a batch of passage texts for indexing.
	// Returns one vector per input, in input order. Requests are batched
	// internally; a failure in any batch fails the whole call.
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

package usecase

import (
	"context"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"

	"voicekb/internal/domain"
	"voicekb/internal/port"
)

// DefaultTopK is how many chunks a retrieval returns when the caller does
// not say otherwise.
const DefaultTopK = 5

// Result is the outcome of one retrieval. An empty Chunks with Degraded
// unset means the knowledge base had nothing relevant; Degraded set means
// an upstream failure was swallowed and Reason says which. Callers can
// always hand Chunks straight to FormatContext.
type Result struct {
	Chunks   []domain.RetrievedChunk
	Degraded bool
	Reason   string
}

// Retriever answers queries against the knowledge base. Upstream failures
// never surface as errors; the voice agent gets an empty, degraded result
// and keeps talking.
type Retriever struct {
	embedder port.Embedder
	store    port.DocumentStore
	log      *charmlog.Logger
	cache    *queryCache
	topK     int
}

type RetrieverOption func(*Retriever)

// WithTopK sets the default result count for calls that pass topK <= 0.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithCache enables an in-memory result cache. Entries live until ttl
// expires, the cache fills past maxEntries, or Invalidate is called.
func WithCache(maxEntries int, ttl time.Duration) RetrieverOption {
	return func(r *Retriever) {
		r.cache = newQueryCache(maxEntries, ttl)
	}
}

func NewRetriever(embedder port.Embedder, store port.DocumentStore, log *charmlog.Logger, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		embedder: embedder,
		store:    store,
		log:      log,
		topK:     DefaultTopK,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve embeds the query and returns the topK nearest chunks. Blank
// queries short-circuit to an empty, non-degraded result without touching
// the embedding service.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) Result {
	if strings.TrimSpace(query) == "" {
		return Result{Chunks: []domain.RetrievedChunk{}}
	}
	if topK <= 0 {
		topK = r.topK
	}

	if r.cache != nil {
		if chunks, hit := r.cache.Get(query, topK); hit {
			return Result{Chunks: chunks}
		}
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		r.log.Warn("retrieval degraded", "stage", "embed", "err", err)
		return Result{Chunks: []domain.RetrievedChunk{}, Degraded: true, Reason: err.Error()}
	}

	chunks, err := r.store.Nearest(ctx, vector, topK)
	if err != nil {
		r.log.Warn("retrieval degraded", "stage", "search", "err", err)
		return Result{Chunks: []domain.RetrievedChunk{}, Degraded: true, Reason: err.Error()}
	}

	if r.cache != nil {
		r.cache.Put(query, topK, chunks)
	}
	return Result{Chunks: chunks}
}

// Invalidate drops all cached results. Call it after the knowledge base
// changes so stale answers cannot outlive the documents behind them.
func (r *Retriever) Invalidate() {
	if r.cache != nil {
		r.cache.Invalidate()
	}
}

package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"voicekb/internal/domain"
	"voicekb/internal/port"
)

var _ port.DocumentStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory DocumentStore. It backs tests and throwaway
// runs; nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]domain.Document
	chunks  map[string]domain.Chunk
	vectors map[string][]float32
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:    make(map[string]domain.Document),
		chunks:  make(map[string]domain.Chunk),
		vectors: make(map[string][]float32),
	}
}

func (s *MemoryStore) PutDocument(_ context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	return nil
}

func (s *MemoryStore) GetDocument(_ context.Context, id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	return doc, nil
}

func (s *MemoryStore) PutChunks(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, chunk := range chunks {
		key := chunk.Key()
		s.chunks[key] = chunk
		s.vectors[key] = vectors[i]
	}
	return nil
}

func (s *MemoryStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := id + "_chunk_"
	for key := range s.chunks {
		if strings.HasPrefix(key, prefix) {
			delete(s.chunks, key)
			delete(s.vectors, key)
		}
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *MemoryStore) Nearest(_ context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	results := []domain.RetrievedChunk{}
	if k <= 0 {
		return results, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		key      string
		distance float64
	}
	var scores []scored
	for key, stored := range s.vectors {
		if len(stored) != len(vector) {
			continue
		}
		distance, ok := cosineDistance(vector, stored)
		if !ok {
			continue
		}
		scores = append(scores, scored{key: key, distance: distance})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].distance != scores[j].distance {
			return scores[i].distance < scores[j].distance
		}
		return scores[i].key < scores[j].key
	})
	if k < len(scores) {
		scores = scores[:k]
	}

	for _, sc := range scores {
		chunk, ok := s.chunks[sc.key]
		if !ok {
			continue
		}
		results = append(results, domain.RetrievedChunk{Chunk: chunk, Distance: sc.distance})
	}
	return results, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func cosineDistance(a, b []float32) (float64, bool) {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), true
}

package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicekb/internal/domain"
)

func chunkWithVector(docID string, index int, content string) domain.Chunk {
	return domain.Chunk{
		DocID:    docID,
		Index:    index,
		Content:  content,
		Source:   "notes.txt",
		FileType: domain.FileTypeTXT,
	}
}

func TestMemoryStoreNearestOrdering(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	chunks := []domain.Chunk{
		chunkWithVector("doc-1", 0, "near"),
		chunkWithVector("doc-1", 1, "far"),
	}
	vectors := [][]float32{
		{1, 0},
		{0, 1},
	}
	require.NoError(t, s.PutChunks(ctx, chunks, vectors))

	got, err := s.Nearest(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].Content)
	assert.Equal(t, "far", got[1].Content)
}

func TestMemoryStoreDeleteIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.PutDocument(ctx, domain.Document{ID: "doc-1"}))
	require.NoError(t, s.PutDocument(ctx, domain.Document{ID: "doc-2"}))
	require.NoError(t, s.PutChunks(ctx,
		[]domain.Chunk{chunkWithVector("doc-1", 0, "one"), chunkWithVector("doc-2", 0, "two")},
		[][]float32{{1, 0}, {0, 1}},
	))

	require.NoError(t, s.DeleteDocument(ctx, "doc-1"))

	_, err := s.GetDocument(ctx, "doc-1")
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)

	got, err := s.Nearest(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "two", got[0].Content)

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-2", docs[0].ID)
}

func TestMemoryStoreDeleteMissingIsNoop(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.DeleteDocument(context.Background(), "ghost"))
}

func TestMemoryStorePutChunksCountMismatch(t *testing.T) {
	s := NewMemoryStore()
	err := s.PutChunks(context.Background(), []domain.Chunk{chunkWithVector("d", 0, "x")}, nil)
	require.Error(t, err)
}

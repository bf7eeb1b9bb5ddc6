package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicekb/internal/domain"
)

func testDoc() domain.Document {
	return domain.Document{
		ID:       "doc1",
		Source:   "notes.txt",
		FileType: domain.FileTypeTXT,
	}
}

func singlePage(text string) []domain.Page {
	return []domain.Page{{Text: text, Number: 1, Total: 1}}
}

func TestNewRecursiveRejectsBadParams(t *testing.T) {
	_, err := NewRecursive(0, 0)
	assert.Error(t, err)

	_, err = NewRecursive(100, -1)
	assert.Error(t, err)

	_, err = NewRecursive(100, 100)
	assert.Error(t, err)

	_, err = NewRecursive(100, 150)
	assert.Error(t, err)
}

func TestChunkOrdinalsContiguous(t *testing.T) {
	c, err := NewRecursive(10, 2)
	require.NoError(t, err)

	chunks, err := c.Chunk(testDoc(), singlePage("Alpha Beta Gamma. Delta Epsilon."))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, "doc1", chunk.DocID)
		assert.NotEmpty(t, chunk.Content)
		assert.LessOrEqual(t, len(chunk.Content), 10+2)
		assert.Equal(t, 1, chunk.Page)
		assert.Equal(t, 1, chunk.TotalPages)
	}
}

func TestChunkRoundTrip(t *testing.T) {
	// With zero overlap and a single separator class, rejoining the chunks
	// on that separator recovers the original text exactly.
	c, err := NewRecursive(12, 0)
	require.NoError(t, err)

	text := "alpha beta gamma delta epsilon zeta"
	chunks, err := c.Chunk(testDoc(), singlePage(text))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = chunk.Content
	}
	assert.Equal(t, text, strings.Join(parts, " "))
}

func TestChunkContentsAreSourceSubstrings(t *testing.T) {
	c, err := NewRecursive(40, 8)
	require.NoError(t, err)

	text := "First paragraph with some words.\n\nSecond paragraph, also with words.\nAnd a trailing line."
	chunks, err := c.Chunk(testDoc(), singlePage(text))
	require.NoError(t, err)

	lastStart := -1
	for _, chunk := range chunks {
		start := strings.Index(text, chunk.Content)
		require.GreaterOrEqual(t, start, 0, "chunk %q not found in source", chunk.Content)
		assert.Greater(t, start, lastStart, "chunks out of order")
		lastStart = start
	}
}

func TestChunkPrefersParagraphBoundaries(t *testing.T) {
	c, err := NewRecursive(30, 0)
	require.NoError(t, err)

	chunks, err := c.Chunk(testDoc(), singlePage("Short first paragraph.\n\nShort second one."))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Short first paragraph.", chunks[0].Content)
	assert.Equal(t, "Short second one.", chunks[1].Content)
}

func TestChunkOrdinalsSpanPages(t *testing.T) {
	c, err := NewRecursive(500, 50)
	require.NoError(t, err)

	doc := domain.Document{ID: "doc2", Source: "report.pdf", FileType: domain.FileTypePDF}
	pages := []domain.Page{
		{Text: "Content of the first page.", Number: 1, Total: 2},
		{Text: "Content of the second page.", Number: 2, Total: 2},
	}

	chunks, err := c.Chunk(doc, pages)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, 2, chunks[1].Page)
	for _, chunk := range chunks {
		assert.Equal(t, "report.pdf", chunk.Source)
		assert.Equal(t, domain.FileTypePDF, chunk.FileType)
		assert.Equal(t, 2, chunk.TotalPages)
	}
}

func TestChunkEmptyPagesFail(t *testing.T) {
	c, err := NewRecursive(500, 50)
	require.NoError(t, err)

	_, err = c.Chunk(testDoc(), []domain.Page{{Text: "   \n ", Number: 1, Total: 1}})
	assert.ErrorIs(t, err, domain.ErrNoExtractableText)

	_, err = c.Chunk(testDoc(), nil)
	assert.ErrorIs(t, err, domain.ErrNoExtractableText)
}

package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicekb/internal/domain"
)

func newTestJina(t *testing.T, baseURL string, dim, batch int) *JinaEmbedder {
	t.Helper()

	e, err := NewJina(JinaConfig{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		Model:     "jina-embeddings-v3",
		Dimension: dim,
		BatchSize: batch,
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	return e
}

// echoServer answers every request with one vector per input, first
// component i+1, and records what it was asked.
func echoServer(t *testing.T, dim int) (*httptest.Server, func() []embedRequest) {
	t.Helper()

	var mu sync.Mutex
	var seen []embedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()

		resp := embedResponse{Data: make([]embedData, len(req.Input))}
		for i := range req.Input {
			vec := make([]float32, dim)
			vec[0] = float32(i + 1)
			resp.Data[i] = embedData{Index: i, Embedding: vec}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	requests := func() []embedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]embedRequest(nil), seen...)
	}
	return srv, requests
}

func TestJinaEmbedPassagesSendsTaskAndModel(t *testing.T) {
	srv, requests := echoServer(t, 4)
	e := newTestJina(t, srv.URL, 4, 50)

	vectors, err := e.EmbedPassages(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(2), vectors[1][0])

	got := requests()
	require.Len(t, got, 1)
	assert.Equal(t, "jina-embeddings-v3", got[0].Model)
	assert.Equal(t, taskPassage, got[0].Task)
	assert.Equal(t, []string{"first", "second"}, got[0].Input)
	assert.Equal(t, 4, got[0].Dimensions)
}

func TestJinaEmbedQueryUsesQueryTask(t *testing.T) {
	srv, requests := echoServer(t, 4)
	e := newTestJina(t, srv.URL, 4, 50)

	vec, err := e.EmbedQuery(context.Background(), "what is the refund policy")
	require.NoError(t, err)
	require.Len(t, vec, 4)

	got := requests()
	require.Len(t, got, 1)
	assert.Equal(t, taskQuery, got[0].Task)
	assert.Equal(t, []string{"what is the refund policy"}, got[0].Input)
}

func TestJinaBatchesRequests(t *testing.T) {
	srv, requests := echoServer(t, 4)
	e := newTestJina(t, srv.URL, 4, 2)

	texts := []string{"a", "b", "c", "d", "e"}
	vectors, err := e.EmbedPassages(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 5)

	got := requests()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b"}, got[0].Input)
	assert.Equal(t, []string{"c", "d"}, got[1].Input)
	assert.Equal(t, []string{"e"}, got[2].Input)
}

func TestJinaEmptyInputSkipsRequest(t *testing.T) {
	srv, requests := echoServer(t, 4)
	e := newTestJina(t, srv.URL, 4, 50)

	vectors, err := e.EmbedPassages(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Empty(t, requests())
}

func TestJinaRestoresOrderByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := embedResponse{Data: []embedData{
			{Index: 1, Embedding: []float32{0, 1}},
			{Index: 0, Embedding: []float32{1, 0}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	e := newTestJina(t, srv.URL, 2, 50)
	vectors, err := e.EmbedPassages(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, []float32{0, 1}, vectors[1])
}

func TestJinaServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"upstream broke"}`))
	}))
	t.Cleanup(srv.Close)

	e := newTestJina(t, srv.URL, 4, 50)
	_, err := e.EmbedPassages(context.Background(), []string{"a"})
	require.Error(t, err)

	var svcErr *domain.EmbeddingServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusInternalServerError, svcErr.Status)
	assert.Contains(t, svcErr.Message, "upstream broke")
}

func TestJinaDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := embedResponse{Data: []embedData{
			{Index: 0, Embedding: []float32{1, 0}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	e := newTestJina(t, srv.URL, 4, 50)
	_, err := e.EmbedQuery(context.Background(), "short vector")
	require.Error(t, err)

	var dimErr *domain.DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 4, dimErr.Want)
	assert.Equal(t, 2, dimErr.Got)
}

func TestJinaMissingVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := embedResponse{Data: []embedData{
			{Index: 0, Embedding: []float32{1, 0, 0, 0}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	e := newTestJina(t, srv.URL, 4, 50)
	_, err := e.EmbedPassages(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no vector for input 1")
}

func TestNewJinaRequiresAPIKey(t *testing.T) {
	_, err := NewJina(JinaConfig{Model: "jina-embeddings-v3"})
	require.Error(t, err)
}

func TestMockEmbedderDeterministic(t *testing.T) {
	e := NewMockEmbedder(64)
	ctx := context.Background()

	first, err := e.EmbedQuery(ctx, "the same text")
	require.NoError(t, err)
	second, err := e.EmbedQuery(ctx, "the same text")
	require.NoError(t, err)
	other, err := e.EmbedQuery(ctx, "a different text")
	require.NoError(t, err)

	require.Len(t, first, 64)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)

	var norm float64
	for _, v := range first {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-3)
}

func TestMockEmbedderPassagesMatchQuery(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()

	batch, err := e.EmbedPassages(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, batch, 2)

	single, err := e.EmbedQuery(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, batch[0], single)
	assert.Equal(t, "mock", e.ModelName())
	assert.Equal(t, 16, e.Dimension())
}

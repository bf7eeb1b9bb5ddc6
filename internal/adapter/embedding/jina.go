package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voicekb/internal/domain"
	"voicekb/internal/port"
)

// Jina task types select the embedding head. Passages and queries are
// embedded asymmetrically and must not be mixed up.
const (
	taskPassage = "retrieval.passage"
	taskQuery   = "retrieval.query"
)

var _ port.Embedder = (*JinaEmbedder)(nil)

// JinaEmbedder calls the Jina AI embeddings API.
type JinaEmbedder struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	batchSize int
	client    *http.Client
}

// JinaConfig carries the connection settings for NewJina. Zero values fall
// back to the jina-embeddings-v3 defaults, except APIKey which is required.
type JinaConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
	BatchSize int
	Timeout   time.Duration
}

func NewJina(cfg JinaConfig) (*JinaEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("jina embedder: API key is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.jina.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "jina-embeddings-v3"
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 1024
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &JinaEmbedder{
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

type embedRequest struct {
	Model      string   `json:"model"`
	Task       string   `json:"task"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embedResponse struct {
	Data  []embedData `json:"data"`
	Usage embedUsage  `json:"usage"`
	Error *apiError   `json:"error,omitempty"`
}

type embedData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type embedUsage struct {
	TotalTokens int `json:"total_tokens"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *JinaEmbedder) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := e.embedBatch(ctx, texts[start:end], taskPassage)
		if err != nil {
			return nil, err
		}
		all = append(all, vectors...)
	}

	return all, nil
}

func (e *JinaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedBatch(ctx, []string{text}, taskQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *JinaEmbedder) embedBatch(ctx context.Context, texts []string, task string) ([][]float32, error) {
	reqBody := embedRequest{
		Model:      e.model,
		Task:       task,
		Input:      texts,
		Dimensions: e.dimension,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.EmbeddingServiceError{Status: resp.StatusCode, Message: bodyPreview(body)}
	}

	var embResp embedResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", bodyPreview(body), err)
	}
	if embResp.Error != nil {
		return nil, &domain.EmbeddingServiceError{Status: resp.StatusCode, Message: embResp.Error.Message}
	}

	// The API may return data out of input order; the index field is
	// authoritative.
	vectors := make([][]float32, len(texts))
	for _, data := range embResp.Data {
		if data.Index < 0 || data.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range for %d inputs", data.Index, len(texts))
		}
		vectors[data.Index] = data.Embedding
	}
	for i, vec := range vectors {
		if vec == nil {
			return nil, fmt.Errorf("embedding service returned no vector for input %d", i)
		}
		if len(vec) != e.dimension {
			return nil, &domain.DimensionMismatchError{Want: e.dimension, Got: len(vec)}
		}
	}

	return vectors, nil
}

func (e *JinaEmbedder) Dimension() int {
	return e.dimension
}

func (e *JinaEmbedder) ModelName() string {
	return e.model
}

func bodyPreview(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		s = s[:max]
	}
	return s
}

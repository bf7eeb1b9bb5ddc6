package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, 1024, cfg.Embedding.Dimension)
	assert.Equal(t, 50, cfg.Embedding.BatchSize)
	assert.Equal(t, "jina-embeddings-v3", cfg.Embedding.Model)
	assert.Equal(t, 400, cfg.Store.WriteBatchSize)
	assert.Equal(t, 5, cfg.Retrieve.TopK)
	assert.Equal(t, int64(2*1024*1024), cfg.Server.MaxUploadBytes)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/voicekb.yaml")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_Overrides(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "voicekb.yaml")

	content := `
chunking:
  size: 200
  overlap: 20
embedding:
  provider: mock
  dimension: 64
retrieve:
  top_k: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Chunking.Size)
	assert.Equal(t, 20, cfg.Chunking.Overlap)
	assert.Equal(t, "mock", cfg.Embedding.Provider)
	assert.Equal(t, 64, cfg.Embedding.Dimension)
	assert.Equal(t, 3, cfg.Retrieve.TopK)
	// untouched sections keep their defaults
	assert.Equal(t, 400, cfg.Store.WriteBatchSize)
	assert.Equal(t, "jina-embeddings-v3", cfg.Embedding.Model)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "voicekb.yaml")

	content := `
chunking:
  size: 100
  overlap: 100
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadFromDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	content := "retrieve:\n  top_k: 7\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "voicekb.yaml"), []byte(content), 0644))

	cfg, err = LoadFromDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Retrieve.TopK)
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "voicekb.yaml")

	cfg := DefaultConfig()
	cfg.Chunking.Size = 333
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEmbeddingAPIKeyFromEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Embedding.APIKeyEnv = "VOICEKB_TEST_KEY"

	t.Setenv("VOICEKB_TEST_KEY", "sk-test")
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey())
}

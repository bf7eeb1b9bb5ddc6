package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the knowledge-base service.
type Config struct {
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Store     StoreConfig     `yaml:"store"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Server    ServerConfig    `yaml:"server"`
	LiveKit   LiveKitConfig   `yaml:"livekit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ChunkingConfig bounds the text splitter.
type ChunkingConfig struct {
	Size    int `yaml:"size"`    // maximum chunk length in characters
	Overlap int `yaml:"overlap"` // characters shared by adjacent chunks
}

// EmbeddingConfig holds embedding provider configuration. The API key is
// never stored in the file; APIKeyEnv names the environment variable that
// carries it.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // "jina" or "mock"
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	Dimension      int    `yaml:"dimension"`
	BatchSize      int    `yaml:"batch_size"` // passages per embedding request
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// APIKey resolves the provider API key from the environment.
func (c EmbeddingConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// Timeout returns the per-request timeout for the embedding client.
func (c EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StoreConfig holds document store configuration.
type StoreConfig struct {
	Path           string `yaml:"path"`
	WriteBatchSize int    `yaml:"write_batch_size"` // chunk writes committed per transaction
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK  int         `yaml:"top_k"`
	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig controls the optional retrieval result cache. Disabled by
// default; every ingest or delete invalidates all cached results.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxEntries int  `yaml:"max_entries"`
	TTLSeconds int  `yaml:"ttl_seconds"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host              string   `yaml:"host"`
	Port              int      `yaml:"port"`
	CORSOrigins       []string `yaml:"cors_origins"`
	MaxUploadBytes    int64    `yaml:"max_upload_bytes"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	PromptPath        string   `yaml:"prompt_path"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LiveKitConfig holds realtime-session token issuance configuration.
// Credentials are resolved from the environment like the embedding key.
type LiveKitConfig struct {
	URL             string `yaml:"url"`
	APIKeyEnv       string `yaml:"api_key_env"`
	APISecretEnv    string `yaml:"api_secret_env"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

// Credentials resolves the LiveKit API key pair from the environment.
func (c LiveKitConfig) Credentials() (key, secret string) {
	return os.Getenv(c.APIKeyEnv), os.Getenv(c.APISecretEnv)
}

// TokenTTL returns the lifetime of issued session tokens.
func (c LiveKitConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			Size:    500,
			Overlap: 50,
		},
		Embedding: EmbeddingConfig{
			Provider:       "jina",
			BaseURL:        "https://api.jina.ai/v1",
			Model:          "jina-embeddings-v3",
			APIKeyEnv:      "JINA_API_KEY",
			Dimension:      1024,
			BatchSize:      50,
			TimeoutSeconds: 30,
		},
		Store: StoreConfig{
			Path:           "data/kb.db",
			WriteBatchSize: 400,
		},
		Retrieve: RetrieveConfig{
			TopK: 5,
			Cache: CacheConfig{
				Enabled:    false,
				MaxEntries: 256,
				TTLSeconds: 300,
			},
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
			CORSOrigins: []string{
				"http://localhost:5173",
				"http://localhost:3000",
				"http://localhost",
				"http://127.0.0.1",
				"http://127.0.0.1:3000",
			},
			MaxUploadBytes:    2 * 1024 * 1024,
			AllowedExtensions: []string{".pdf", ".txt", ".md", ".docx"},
			PromptPath:        "data/system_prompt.json",
		},
		LiveKit: LiveKitConfig{
			URL:             "ws://localhost:7880",
			APIKeyEnv:       "LIVEKIT_API_KEY",
			APISecretEnv:    "LIVEKIT_API_SECRET",
			TokenTTLMinutes: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, applied over the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for voicekb.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "voicekb.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking.overlap must not be negative, got %d", c.Chunking.Overlap)
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap %d must be smaller than chunking.size %d", c.Chunking.Overlap, c.Chunking.Size)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Store.WriteBatchSize <= 0 {
		return fmt.Errorf("store.write_batch_size must be positive, got %d", c.Store.WriteBatchSize)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	return nil
}

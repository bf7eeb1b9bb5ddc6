package cli

import (
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"voicekb/config"
	"voicekb/internal/adapter/chunker"
	"voicekb/internal/adapter/embedding"
	"voicekb/internal/adapter/store"
	"voicekb/internal/logging"
	"voicekb/internal/port"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *charmlog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "voicekb",
	Short: "Knowledge base service for a voice AI agent",
	Long: `voicekb ingests documents into an embedded vector store and serves
retrieval, document management and realtime session tokens over HTTP.

Example usage:
  voicekb serve                      # Start the HTTP API
  voicekb ingest ./docs              # Ingest a directory of documents
  voicekb query -q "refund policy"   # Search from the terminal
  voicekb docs list                  # Show ingested documents`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A .env file is optional; deployments usually set the environment
		// directly.
		_ = godotenv.Load()

		var err error
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(".")
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log = logging.New(cfg.Logging.Level, cfg.Logging.JSON, os.Stderr)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./voicekb.yaml)")
}

// newEmbedder builds the embedding client named by the config.
func newEmbedder() (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "", "jina":
		return embedding.NewJina(embedding.JinaConfig{
			BaseURL:   cfg.Embedding.BaseURL,
			APIKey:    cfg.Embedding.APIKey(),
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
			BatchSize: cfg.Embedding.BatchSize,
			Timeout:   cfg.Embedding.Timeout(),
		})
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Embedding.Provider)
	}
}

// openStore opens the vector store and verifies the on-disk index was built
// with the same embedder and chunking parameters the config names now.
func openStore(embedder port.Embedder) (*store.BoltStore, error) {
	st, err := store.NewBoltStore(cfg.Store.Path, cfg.Store.WriteBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", cfg.Store.Path, err)
	}
	info := store.IndexInfo{
		Model:        embedder.ModelName(),
		Dimension:    embedder.Dimension(),
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
	}
	if err := st.EnsureIndexInfo(info); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func newChunker() (*chunker.Recursive, error) {
	return chunker.NewRecursive(cfg.Chunking.Size, cfg.Chunking.Overlap)
}

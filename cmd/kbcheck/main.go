package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"voicekb/config"
	"voicekb/internal/adapter/embedding"
	"voicekb/internal/adapter/store"
	"voicekb/internal/port"
)

// kbcheck verifies a deployment end to end: config, the on-disk index and
// the embedding provider. Exit code 0 means every check passed.
func main() {
	cfgPath := flag.String("config", "", "path to config file (default ./voicekb.yaml)")
	probe := flag.String("q", "connectivity probe", "probe text sent to the embedding provider")
	timeout := flag.Duration("timeout", 15*time.Second, "embedding probe timeout")
	skipEmbed := flag.Bool("skip-embedding", false, "skip the embedding provider probe")
	flag.Parse()

	_ = godotenv.Load()

	fmt.Println("KNOWLEDGE BASE CHECK")
	fmt.Println(strings.Repeat("=", 60))

	var (
		cfg *config.Config
		err error
	)
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		fail("config", err)
	}
	fmt.Printf("config:    OK (provider=%s model=%s dimension=%d)\n",
		providerName(cfg), cfg.Embedding.Model, cfg.Embedding.Dimension)

	if _, err := os.Stat(cfg.Store.Path); os.IsNotExist(err) {
		fail("store", fmt.Errorf("no knowledge base at %s; run 'voicekb ingest' or 'voicekb serve' first", cfg.Store.Path))
	}

	st, err := store.NewBoltStore(cfg.Store.Path, cfg.Store.WriteBatchSize)
	if err != nil {
		fail("store", err)
	}
	defer st.Close()

	checkIndex(st, cfg)

	if *skipEmbed {
		fmt.Println("embedding: SKIPPED")
	} else {
		checkEmbedding(cfg, *probe, *timeout)
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("All checks passed.")
}

func checkIndex(st *store.BoltStore, cfg *config.Config) {
	info, found, err := st.GetIndexInfo()
	if err != nil {
		fail("store", err)
	}

	counts, err := st.Counts()
	if err != nil {
		fail("store", err)
	}

	if !found {
		fmt.Println("store:     OK (empty, index parameters unset)")
		return
	}

	if counts.Chunks != counts.Vectors {
		fail("store", fmt.Errorf("%d chunks but %d vectors; the index is inconsistent, rebuild the knowledge base",
			counts.Chunks, counts.Vectors))
	}
	if info.Dimension != cfg.Embedding.Dimension {
		fail("store", fmt.Errorf("index built with dimension %d, config says %d; rebuild the knowledge base",
			info.Dimension, cfg.Embedding.Dimension))
	}
	if cfg.Chunking.Size != info.ChunkSize || cfg.Chunking.Overlap != info.ChunkOverlap {
		fail("store", fmt.Errorf("index built with chunking %d/%d, config says %d/%d; rebuild the knowledge base",
			info.ChunkSize, info.ChunkOverlap, cfg.Chunking.Size, cfg.Chunking.Overlap))
	}

	fmt.Printf("store:     OK (%d documents, %d chunks, model=%s)\n",
		counts.Documents, counts.Chunks, info.Model)
}

func checkEmbedding(cfg *config.Config, probe string, timeout time.Duration) {
	var (
		embedder port.Embedder
		err      error
	)
	switch cfg.Embedding.Provider {
	case "", "jina":
		embedder, err = embedding.NewJina(embedding.JinaConfig{
			BaseURL:   cfg.Embedding.BaseURL,
			APIKey:    cfg.Embedding.APIKey(),
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
			BatchSize: cfg.Embedding.BatchSize,
			Timeout:   cfg.Embedding.Timeout(),
		})
	case "mock":
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimension)
	default:
		err = fmt.Errorf("unknown embedding provider: %q", cfg.Embedding.Provider)
	}
	if err != nil {
		fail("embedding", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	vec, err := embedder.EmbedQuery(ctx, probe)
	if err != nil {
		fail("embedding", err)
	}
	if len(vec) != embedder.Dimension() {
		fail("embedding", fmt.Errorf("provider returned %d dimensions, expected %d", len(vec), embedder.Dimension()))
	}
	fmt.Printf("embedding: OK (%d dimensions in %s)\n", len(vec), time.Since(start).Round(time.Millisecond))
}

func providerName(cfg *config.Config) string {
	if cfg.Embedding.Provider == "" {
		return "jina"
	}
	return cfg.Embedding.Provider
}

func fail(check string, err error) {
	fmt.Fprintf(os.Stderr, "%s: FAIL (%v)\n", check, err)
	os.Exit(1)
}

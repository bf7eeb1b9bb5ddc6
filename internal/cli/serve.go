package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"voicekb/internal/adapter/loader"
	"voicekb/internal/prompt"
	"voicekb/internal/server"
	"voicekb/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the knowledge base HTTP API",
	Long: `Serve document upload, retrieval, prompt and session token endpoints.

The listen address, upload limits and CORS origins come from the config
file; API credentials come from the environment.

Examples:
  voicekb serve
  voicekb serve --config ./voicekb.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	st, err := openStore(embedder)
	if err != nil {
		return err
	}
	defer st.Close()

	chk, err := newChunker()
	if err != nil {
		return err
	}

	ingestor := usecase.NewIngestor(loader.New(), chk, embedder, st, log)

	opts := []usecase.RetrieverOption{usecase.WithTopK(cfg.Retrieve.TopK)}
	if cfg.Retrieve.Cache.Enabled {
		opts = append(opts, usecase.WithCache(cfg.Retrieve.Cache.MaxEntries, cfg.Retrieve.Cache.TTL()))
	}
	retriever := usecase.NewRetriever(embedder, st, log, opts...)

	prompts := prompt.NewStore(cfg.Server.PromptPath)

	srv := server.New(cfg, ingestor, retriever, prompts, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

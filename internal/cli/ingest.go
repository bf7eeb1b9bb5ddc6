package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"voicekb/internal/adapter/fs"
	"voicekb/internal/adapter/loader"
	"voicekb/internal/logging"
	"voicekb/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Ingest documents into the knowledge base",
	Long: `Ingest files, directories or glob patterns into the knowledge base.

Directories are walked recursively; only supported formats (txt, md, pdf,
docx) are picked up. Each file is chunked, embedded and stored under a
fresh document ID.

Examples:
  voicekb ingest ./docs
  voicekb ingest manual.pdf notes.md
  voicekb ingest "handbook/**/*.pdf"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	files, err := fs.Collect(args, cfg.Server.AllowedExtensions)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no ingestable files found")
	}

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

	// The progress bar owns the terminal during ingestion; per-file results
	// are collected and printed afterwards.
	ingestor := usecase.NewIngestor(loader.New(), chk, embedder, st, logging.Nop())

	bar := progressbar.Default(int64(len(files)), "ingesting")

	ingested, chunks := 0, 0
	var failures []string
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
			_ = bar.Add(1)
			continue
		}
		doc, err := ingestor.Ingest(cmd.Context(), uuid.NewString(), filepath.Base(path), data)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
			_ = bar.Add(1)
			continue
		}
		ingested++
		chunks += doc.ChunkCount
		_ = bar.Add(1)
	}

	fmt.Printf("\nIngested %d/%d files (%d chunks)\n", ingested, len(files), chunks)
	if len(failures) > 0 {
		fmt.Printf("Failed (%d):\n", len(failures))
		for _, f := range failures {
			fmt.Printf("  %s\n", f)
		}
		return fmt.Errorf("%d of %d files failed", len(failures), len(files))
	}
	return nil
}

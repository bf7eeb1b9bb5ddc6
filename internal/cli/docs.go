package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"voicekb/internal/adapter/store"
	"voicekb/internal/domain"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage ingested documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE:  runDocsList,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <doc-id>",
	Short: "Delete a document and all of its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsDeleteCmd)
}

// Listing and deleting never touch the embedding provider, so these commands
// open the store directly instead of going through openStore.
func openStoreDirect() (*store.BoltStore, error) {
	st, err := store.NewBoltStore(cfg.Store.Path, cfg.Store.WriteBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", cfg.Store.Path, err)
	}
	return st, nil
}

func runDocsList(cmd *cobra.Command, args []string) error {
	st, err := openStoreDirect()
	if err != nil {
		return err
	}
	defer st.Close()

	docs, err := st.ListDocuments(cmd.Context())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents ingested.")
		return nil
	}

	fmt.Printf("%-36s  %-28s  %-5s  %6s  %5s  %s\n", "ID", "SOURCE", "TYPE", "CHUNKS", "PAGES", "CREATED")
	for _, d := range docs {
		fmt.Printf("%-36s  %-28s  %-5s  %6d  %5d  %s\n",
			d.ID, d.Source, d.FileType, d.ChunkCount, d.TotalPages,
			d.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	docID := args[0]

	st, err := openStoreDirect()
	if err != nil {
		return err
	}
	defer st.Close()

	doc, err := st.GetDocument(cmd.Context(), docID)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return fmt.Errorf("document %s not found", docID)
		}
		return err
	}
	if err := st.DeleteDocument(cmd.Context(), docID); err != nil {
		return err
	}
	fmt.Printf("Deleted %s (%s, %d chunks)\n", doc.ID, doc.Source, doc.ChunkCount)
	return nil
}

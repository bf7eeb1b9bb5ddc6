package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"voicekb/internal/usecase"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the knowledge base from the terminal",
	Long: `Embed a query, search the vector store and print the assembled context
block the agent would receive.

Examples:
  voicekb query -q "what is the refund policy"
  voicekb query -q "warranty period" -k 10
  voicekb query -q "setup steps" --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print raw results as JSON")
	_ = queryCmd.MarkFlagRequired("query")
}

type queryResult struct {
	Content    string  `json:"content"`
	DocID      string  `json:"doc_id"`
	ChunkIndex int     `json:"chunk_index"`
	Source     string  `json:"source"`
	Page       int     `json:"page,omitempty"`
	TotalPages int     `json:"total_pages,omitempty"`
	Distance   float64 `json:"distance"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	st, err := openStore(embedder)
	if err != nil {
		return err
	}
	defer st.Close()

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	retriever := usecase.NewRetriever(embedder, st, log)
	result := retriever.Retrieve(cmd.Context(), queryText, topK)
	// The server degrades to an empty context so the agent keeps talking;
	// on the terminal a failed search is just an error.
	if result.Degraded {
		return fmt.Errorf("retrieval degraded: %s", result.Reason)
	}

	if queryJSON {
		out := make([]queryResult, 0, len(result.Chunks))
		for _, c := range result.Chunks {
			out = append(out, queryResult{
				Content:    c.Content,
				DocID:      c.DocID,
				ChunkIndex: c.Index,
				Source:     c.Source,
				Page:       c.Page,
				TotalPages: c.TotalPages,
				Distance:   c.Distance,
			})
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(usecase.FormatContext(result.Chunks))
	return nil
}

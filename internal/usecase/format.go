package usecase

import (
	"fmt"
	"strings"

	"voicekb/internal/domain"
)

// NoContextSentinel is the context block for a retrieval that produced
// nothing. Agent prompt templates match on this exact string, so it must
// not change.
const NoContextSentinel = "No relevant information found in the knowledge base."

const contextSeparator = "\n\n---\n\n"

// FormatContext renders retrieved chunks into the context block injected
// into the agent's prompt. Every chunk is cited with a numbered source
// header; the page reference appears only for formats that actually
// paginate.
func FormatContext(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return NoContextSentinel
	}

	parts := make([]string, 0, len(chunks))
	for i, rc := range chunks {
		var header string
		if rc.TotalPages > 1 {
			header = fmt.Sprintf("[Source %d: %s, page %d/%d]", i+1, rc.Source, rc.Page, rc.TotalPages)
		} else {
			header = fmt.Sprintf("[Source %d: %s]", i+1, rc.Source)
		}
		parts = append(parts, header+"\n"+rc.Content)
	}
	return strings.Join(parts, contextSeparator)
}

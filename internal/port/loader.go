package port

import "voicekb/internal/domain"

// Loader extracts page text from raw document bytes. The format is selected
// by file extension; unknown extensions fail with
// domain.UnsupportedFormatError before any bytes are inspected.
type Loader interface {
	// Load returns the document's pages in order. Blank pages are dropped
	// and the remainder renumbered 1..Total. A document with no text at
	// all fails with domain.ErrNoExtractableText.
	Load(filename string, data []byte) ([]domain.Page, error)
}

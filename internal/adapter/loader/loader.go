// Package loader extracts page text from raw document bytes. One loader per
// supported format; selection is by file extension.
package loader

import (
	"path/filepath"
	"strings"

	"voicekb/internal/domain"
	"voicekb/internal/port"
)

var _ port.Loader = (*Loader)(nil)

type Loader struct{}

func New() *Loader {
	return &Loader{}
}

// Load extracts the document's pages. Blank pages are dropped before
// numbering, so page numbers are always 1..Total with no holes.
func (l *Loader) Load(filename string, data []byte) ([]domain.Page, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	ft, err := domain.FileTypeForExt(ext)
	if err != nil {
		return nil, err
	}

	var texts []string
	switch ft {
	case domain.FileTypeTXT, domain.FileTypeMD:
		texts, err = extractText(data)
	case domain.FileTypePDF:
		texts, err = extractPDF(data)
	case domain.FileTypeDOCX:
		texts, err = extractDOCX(data)
	}
	if err != nil {
		return nil, err
	}

	pages := buildPages(texts)
	if len(pages) == 0 {
		return nil, domain.ErrNoExtractableText
	}
	return pages, nil
}

// buildPages numbers the non-blank page texts sequentially.
func buildPages(texts []string) []domain.Page {
	kept := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			kept = append(kept, t)
		}
	}

	pages := make([]domain.Page, len(kept))
	for i, t := range kept {
		pages[i] = domain.Page{
			Text:   t,
			Number: i + 1,
			Total:  len(kept),
		}
	}
	return pages
}

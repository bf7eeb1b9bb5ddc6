package domain

import (
	"fmt"
	"time"
)

// FileType identifies the source format of an ingested document.
type FileType string

const (
	FileTypeTXT  FileType = "txt"
	FileTypeMD   FileType = "md"
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
)

// FileTypeForExt maps a lowercased file extension (with leading dot) to its
// FileType. Unknown extensions fail with UnsupportedFormatError.
func FileTypeForExt(ext string) (FileType, error) {
	switch ext {
	case ".txt":
		return FileTypeTXT, nil
	case ".md":
		return FileTypeMD, nil
	case ".pdf":
		return FileTypePDF, nil
	case ".docx":
		return FileTypeDOCX, nil
	default:
		return "", &UnsupportedFormatError{Ext: ext}
	}
}

// DocumentStatus records the outcome of an ingestion.
type DocumentStatus string

const (
	StatusIngested DocumentStatus = "ingested"
	StatusFailed   DocumentStatus = "failed"
)

// Document is the metadata record of one ingested source file. The record is
// written once at the end of a successful ingestion and never mutated;
// re-ingesting a file creates a new document under a fresh ID.
type Document struct {
	ID         string
	Source     string // original filename
	FileType   FileType
	ChunkCount int
	TotalPages int
	Status     DocumentStatus
	CreatedAt  time.Time
}

// Page is the extracted text of one page of a source document. Numbers are
// 1-based and assigned after blank pages have been dropped.
type Page struct {
	Text   string
	Number int
	Total  int
}

// Chunk is one bounded segment of a document's text, the unit of embedding
// and retrieval. Index values for a document form a contiguous 0-based
// sequence across all of its pages.
type Chunk struct {
	DocID      string
	Index      int
	Content    string
	Source     string
	FileType   FileType
	Page       int
	TotalPages int
}

// Key returns the chunk's storage key, unique within the store and stable
// across retries of the same ingestion.
func (c Chunk) Key() string {
	return fmt.Sprintf("%s_chunk_%d", c.DocID, c.Index)
}

// RetrievedChunk is a chunk returned by a nearest-neighbour search together
// with its cosine distance to the query (smaller is nearer).
type RetrievedChunk struct {
	Chunk
	Distance float64
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoExtractableText is returned when a document yields no text to
	// chunk. Ingestion aborts before anything is written.
	ErrNoExtractableText = errors.New("document contains no extractable text")

	// ErrDocumentNotFound is returned by store lookups for unknown IDs.
	ErrDocumentNotFound = errors.New("document not found")
)

// UnsupportedFormatError rejects a file whose extension has no loader.
// Raised before any bytes are processed.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %q", e.Ext)
}

// EmbeddingServiceError is a non-success response from the embedding
// provider. Status carries the HTTP status code of the response.
type EmbeddingServiceError struct {
	Status  int
	Message string
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service error (status %d): %s", e.Status, e.Message)
}

// DimensionMismatchError reports an embedding whose length disagrees with
// the configured vector dimension.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// StoreWriteError wraps a persistence failure on the write path. Batches
// committed before the failure stay committed; the wrapped cause is
// available through Unwrap.
type StoreWriteError struct {
	Op  string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed (%s): %v", e.Op, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

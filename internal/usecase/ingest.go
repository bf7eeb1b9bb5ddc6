package usecase

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"

	"voicekb/internal/domain"
	"voicekb/internal/port"
)

// Ingestor runs the ingestion pipeline for a single document: extract page
// text, chunk it, embed the chunks and persist everything. Chunks are
// written before the document record, so a document listed in the store is
// always fully searchable.
type Ingestor struct {
	loader   port.Loader
	chunker  port.Chunker
	embedder port.Embedder
	store    port.DocumentStore
	log      *charmlog.Logger
}

func NewIngestor(
	loader port.Loader,
	chunker port.Chunker,
	embedder port.Embedder,
	store port.DocumentStore,
	log *charmlog.Logger,
) *Ingestor {
	return &Ingestor{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		log:      log,
	}
}

// Ingest processes one document under the caller-chosen ID and returns the
// stored metadata record. A failure at any stage aborts the pipeline before
// the document record is written; chunk keys are deterministic, so retrying
// with the same ID simply overwrites any chunks an earlier attempt left
// behind.
func (u *Ingestor) Ingest(ctx context.Context, docID, filename string, data []byte) (domain.Document, error) {
	start := time.Now()

	fileType, err := domain.FileTypeForExt(strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		u.log.Error("rejected document", "doc_id", docID, "source", filename, "err", err)
		return domain.Document{}, err
	}

	pages, err := u.loader.Load(filename, data)
	if err != nil {
		u.log.Error("text extraction failed", "doc_id", docID, "source", filename, "err", err)
		return domain.Document{}, err
	}

	doc := domain.Document{
		ID:         docID,
		Source:     filename,
		FileType:   fileType,
		TotalPages: pages[0].Total,
		Status:     domain.StatusIngested,
		CreatedAt:  time.Now().UTC(),
	}

	chunks, err := u.chunker.Chunk(doc, pages)
	if err != nil {
		u.log.Error("chunking failed", "doc_id", docID, "source", filename, "err", err)
		return domain.Document{}, err
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := u.embedder.EmbedPassages(ctx, texts)
	if err != nil {
		u.log.Error("embedding failed", "doc_id", docID, "source", filename, "chunks", len(chunks), "err", err)
		return domain.Document{}, err
	}

	if err := u.store.PutChunks(ctx, chunks, vectors); err != nil {
		u.log.Error("chunk write failed", "doc_id", docID, "source", filename, "err", err)
		return domain.Document{}, err
	}

	doc.ChunkCount = len(chunks)
	if err := u.store.PutDocument(ctx, doc); err != nil {
		u.log.Error("document write failed", "doc_id", docID, "source", filename, "err", err)
		return domain.Document{}, err
	}

	u.log.Info("ingested document",
		"doc_id", docID,
		"source", filename,
		"pages", doc.TotalPages,
		"chunks", doc.ChunkCount,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return doc, nil
}

// Delete removes a document and all of its chunks. Unknown IDs are not an
// error; the end state is the same either way.
func (u *Ingestor) Delete(ctx context.Context, docID string) error {
	if err := u.store.DeleteDocument(ctx, docID); err != nil {
		u.log.Error("delete failed", "doc_id", docID, "err", err)
		return err
	}
	u.log.Info("deleted document", "doc_id", docID)
	return nil
}

// List returns the metadata of every ingested document.
func (u *Ingestor) List(ctx context.Context) ([]domain.Document, error) {
	return u.store.ListDocuments(ctx)
}

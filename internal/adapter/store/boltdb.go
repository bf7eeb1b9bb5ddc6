package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"voicekb/internal/domain"
	"voicekb/internal/port"
)

var (
	bucketDocuments = []byte("documents")
	bucketChunks    = []byte("chunks")
	bucketVectors   = []byte("vectors")
	bucketMeta      = []byte("meta")
)

// DefaultWriteBatchSize bounds how many chunk records go into a single
// write transaction. Each batch commits before the next one starts.
const DefaultWriteBatchSize = 400

var _ port.DocumentStore = (*BoltStore)(nil)

// BoltStore persists documents, chunks and embedding vectors in a single
// BoltDB file. Nearest-neighbour search is brute force over all stored
// vectors, which is fine for knowledge bases of a few thousand chunks.
type BoltStore struct {
	db        *bbolt.DB
	batchSize int
}

func NewBoltStore(path string, batchSize int) (*BoltStore, error) {
	if batchSize <= 0 {
		batchSize = DefaultWriteBatchSize
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocuments, bucketChunks, bucketVectors, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, batchSize: batchSize}, nil
}

type docRecord struct {
	Source     string `json:"source"`
	FileType   string `json:"file_type"`
	ChunkCount int    `json:"chunk_count"`
	TotalPages int    `json:"total_pages"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"created_at"`
}

type chunkRecord struct {
	DocID      string `json:"doc_id"`
	Index      int    `json:"chunk_index"`
	Content    string `json:"content"`
	Source     string `json:"source"`
	FileType   string `json:"file_type"`
	Page       int    `json:"page,omitempty"`
	TotalPages int    `json:"total_pages,omitempty"`
}

func (s *BoltStore) PutDocument(_ context.Context, doc domain.Document) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		rec := docRecord{
			Source:     doc.Source,
			FileType:   string(doc.FileType),
			ChunkCount: doc.ChunkCount,
			TotalPages: doc.TotalPages,
			Status:     string(doc.Status),
			CreatedAt:  doc.CreatedAt.Unix(),
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocuments).Put([]byte(doc.ID), data)
	})
	if err != nil {
		return &domain.StoreWriteError{Op: "put_document", Err: err}
	}
	return nil
}

func (s *BoltStore) GetDocument(_ context.Context, id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocuments).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
		}
		var rec docRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		doc = rec.toDocument(id)
		return nil
	})
	return doc, err
}

func (s *BoltStore) PutChunks(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}

	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		err := s.db.Update(func(tx *bbolt.Tx) error {
			chunkBucket := tx.Bucket(bucketChunks)
			vectorBucket := tx.Bucket(bucketVectors)

			for i := start; i < end; i++ {
				chunk := chunks[i]
				rec := chunkRecord{
					DocID:      chunk.DocID,
					Index:      chunk.Index,
					Content:    chunk.Content,
					Source:     chunk.Source,
					FileType:   string(chunk.FileType),
					Page:       chunk.Page,
					TotalPages: chunk.TotalPages,
				}
				data, err := json.Marshal(rec)
				if err != nil {
					return err
				}
				key := []byte(chunk.Key())
				if err := chunkBucket.Put(key, data); err != nil {
					return err
				}
				if err := vectorBucket.Put(key, float32sToBytes(vectors[i])); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return &domain.StoreWriteError{Op: "put_chunks", Err: err}
		}
	}

	return nil
}

func (s *BoltStore) DeleteDocument(_ context.Context, id string) error {
	prefix := []byte(id + "_chunk_")

	var keys [][]byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketChunks).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return &domain.StoreWriteError{Op: "delete_document", Err: err}
	}

	for start := 0; start < len(keys); start += s.batchSize {
		end := start + s.batchSize
		if end > len(keys) {
			end = len(keys)
		}

		err := s.db.Update(func(tx *bbolt.Tx) error {
			chunkBucket := tx.Bucket(bucketChunks)
			vectorBucket := tx.Bucket(bucketVectors)
			for _, key := range keys[start:end] {
				if err := chunkBucket.Delete(key); err != nil {
					return err
				}
				if err := vectorBucket.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return &domain.StoreWriteError{Op: "delete_document", Err: err}
		}
	}

	// The metadata record goes last so a partial delete is retryable.
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).Delete([]byte(id))
	})
	if err != nil {
		return &domain.StoreWriteError{Op: "delete_document", Err: err}
	}
	return nil
}

func (s *BoltStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	docs := []domain.Document{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(k, v []byte) error {
			var rec docRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			docs = append(docs, rec.toDocument(string(k)))
			return nil
		})
	})
	return docs, err
}

func (s *BoltStore) Nearest(_ context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	results := []domain.RetrievedChunk{}
	if k <= 0 {
		return results, nil
	}

	type scored struct {
		key      []byte
		distance float64
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		var scores []scored
		err := tx.Bucket(bucketVectors).ForEach(func(key, raw []byte) error {
			stored := bytesToFloat32s(raw)
			if len(stored) != len(vector) {
				return nil
			}
			distance, ok := cosineDistance(vector, stored)
			if !ok {
				return nil
			}
			scores = append(scores, scored{
				key:      append([]byte(nil), key...),
				distance: distance,
			})
			return nil
		})
		if err != nil {
			return err
		}

		sort.Slice(scores, func(i, j int) bool {
			if scores[i].distance != scores[j].distance {
				return scores[i].distance < scores[j].distance
			}
			return bytes.Compare(scores[i].key, scores[j].key) < 0
		})
		if k < len(scores) {
			scores = scores[:k]
		}

		chunkBucket := tx.Bucket(bucketChunks)
		for _, sc := range scores {
			data := chunkBucket.Get(sc.key)
			if data == nil {
				continue
			}
			var rec chunkRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return err
			}
			results = append(results, domain.RetrievedChunk{
				Chunk:    rec.toChunk(),
				Distance: sc.distance,
			})
		}
		return nil
	})
	return results, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Counts reports how many records each bucket holds.
type Counts struct {
	Documents int
	Chunks    int
	Vectors   int
}

func (s *BoltStore) Counts() (Counts, error) {
	var counts Counts
	err := s.db.View(func(tx *bbolt.Tx) error {
		counts.Documents = tx.Bucket(bucketDocuments).Stats().KeyN
		counts.Chunks = tx.Bucket(bucketChunks).Stats().KeyN
		counts.Vectors = tx.Bucket(bucketVectors).Stats().KeyN
		return nil
	})
	return counts, err
}

func (r docRecord) toDocument(id string) domain.Document {
	return domain.Document{
		ID:         id,
		Source:     r.Source,
		FileType:   domain.FileType(r.FileType),
		ChunkCount: r.ChunkCount,
		TotalPages: r.TotalPages,
		Status:     domain.DocumentStatus(r.Status),
		CreatedAt:  time.Unix(r.CreatedAt, 0).UTC(),
	}
}

func (r chunkRecord) toChunk() domain.Chunk {
	return domain.Chunk{
		DocID:      r.DocID,
		Index:      r.Index,
		Content:    r.Content,
		Source:     r.Source,
		FileType:   domain.FileType(r.FileType),
		Page:       r.Page,
		TotalPages: r.TotalPages,
	}
}

// cosineDistance returns 1 - cosine similarity. The second return is false
// when either vector has zero norm, where the distance is undefined.
func cosineDistance(a, b []float32) (float64, bool) {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), true
}

func float32sToBytes(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func bytesToFloat32s(raw []byte) []float32 {
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec
}

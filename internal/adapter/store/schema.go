package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is bumped on breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keyIndexInfo = []byte("index_info")

// IndexInfo pins the parameters an index was built with. Vectors embedded
// under one model or dimension are meaningless to another, so a mismatch
// means the knowledge base must be rebuilt, not reused.
type IndexInfo struct {
	SchemaVersion int    `json:"schema_version"`
	Model         string `json:"model"`
	Dimension     int    `json:"dimension"`
	ChunkSize     int    `json:"chunk_size"`
	ChunkOverlap  int    `json:"chunk_overlap"`
}

// GetIndexInfo returns the stored index parameters. The second return is
// false for a fresh store that has never been written to.
func (s *BoltStore) GetIndexInfo() (IndexInfo, bool, error) {
	var info IndexInfo
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyIndexInfo)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &info); err != nil {
			return fmt.Errorf("failed to parse index info: %w", err)
		}
		found = true
		return nil
	})
	return info, found, err
}

// EnsureIndexInfo records the index parameters on first use and verifies
// them on every later open. A store created under different parameters is
// rejected rather than silently mixed.
func (s *BoltStore) EnsureIndexInfo(info IndexInfo) error {
	info.SchemaVersion = CurrentSchemaVersion

	stored, found, err := s.GetIndexInfo()
	if err != nil {
		return err
	}
	if !found {
		return s.db.Update(func(tx *bbolt.Tx) error {
			data, err := json.Marshal(info)
			if err != nil {
				return err
			}
			return tx.Bucket(bucketMeta).Put(keyIndexInfo, data)
		})
	}

	if stored.SchemaVersion != info.SchemaVersion {
		return fmt.Errorf("store schema version %d does not match current version %d; rebuild the knowledge base", stored.SchemaVersion, info.SchemaVersion)
	}
	if stored.Model != info.Model {
		return fmt.Errorf("store was built with embedding model %q, configured model is %q; rebuild the knowledge base", stored.Model, info.Model)
	}
	if stored.Dimension != info.Dimension {
		return fmt.Errorf("store was built with dimension %d, configured dimension is %d; rebuild the knowledge base", stored.Dimension, info.Dimension)
	}
	if stored.ChunkSize != info.ChunkSize || stored.ChunkOverlap != info.ChunkOverlap {
		return fmt.Errorf("store was built with chunking %d/%d, configured chunking is %d/%d; rebuild the knowledge base",
			stored.ChunkSize, stored.ChunkOverlap, info.ChunkSize, info.ChunkOverlap)
	}
	return nil
}

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	config "github.com/chainbatch/ingestor/configs"
)

// CheckpointStore holds the last fully processed block number. Load returns
// nil when no checkpoint exists yet. Save is a full replace: once it returns,
// only the new value is readable.
type CheckpointStore interface {
	LoadCheckpoint(ctx context.Context) (*uint64, error)
	SaveCheckpoint(ctx context.Context, blockNumber uint64) error
	Close() error
}

// Sink persists one flushed batch as a single named artifact containing a
// JSON array of records.
type Sink interface {
	WriteArtifact(ctx context.Context, name string, records []json.RawMessage) error
	Close() error
}

// StorageError is a checkpoint or sink failure. Always fatal to the run;
// the ingestion loop never advances past one.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewCheckpointStore(cfg *config.CheckpointConfig) (CheckpointStore, error) {
	if cfg.Badger != nil {
		return NewBadgerCheckpointStore(cfg.Badger)
	}
	if cfg.S3 != nil {
		return NewS3CheckpointStore(cfg.S3)
	}
	if cfg.Memory != nil {
		return NewMemoryCheckpointStore(), nil
	}
	return nil, fmt.Errorf("no checkpoint store configured")
}

func NewSink(cfg *config.SinkConfig) (Sink, error) {
	if cfg.Local != nil {
		return NewLocalSink(cfg.Local)
	}
	if cfg.S3 != nil {
		return NewS3Sink(cfg.S3)
	}
	if cfg.Memory != nil {
		return NewMemorySink(), nil
	}
	return nil, fmt.Errorf("no sink configured")
}

// encodeArtifact assembles pre-marshaled records into one JSON array.
func encodeArtifact(records []json.RawMessage) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, record := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(record)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

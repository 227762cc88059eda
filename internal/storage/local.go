package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	config "github.com/chainbatch/ingestor/configs"
	"github.com/rs/zerolog/log"
)

// LocalSink writes artifacts into a directory, one JSON file per flush.
type LocalSink struct {
	dir string
}

func NewLocalSink(cfg *config.LocalSinkConfig) (*LocalSink, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "./output"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "sink init", Err: err}
	}
	return &LocalSink{dir: dir}, nil
}

func (s *LocalSink) WriteArtifact(ctx context.Context, name string, records []json.RawMessage) error {
	data := encodeArtifact(records)
	path := filepath.Join(s.dir, name)

	// write-then-rename so a crash never leaves a truncated artifact behind
	tmp, err := os.CreateTemp(s.dir, name+".tmp")
	if err != nil {
		return &StorageError{Op: fmt.Sprintf("write %s", name), Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &StorageError{Op: fmt.Sprintf("write %s", name), Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Op: fmt.Sprintf("write %s", name), Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Op: fmt.Sprintf("write %s", name), Err: err}
	}
	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("Wrote artifact")
	return nil
}

func (s *LocalSink) Close() error {
	return nil
}

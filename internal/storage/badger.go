package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	config "github.com/chainbatch/ingestor/configs"
	"github.com/dgraph-io/badger/v4"
)

var checkpointKey = []byte("checkpoint/last_block")

// BadgerCheckpointStore keeps the checkpoint in an embedded badger DB on
// local disk, for the batch-job deployment variant.
type BadgerCheckpointStore struct {
	db *badger.DB
}

func NewBadgerCheckpointStore(cfg *config.BadgerConfig) (*BadgerCheckpointStore, error) {
	path := cfg.Path
	if path == "" {
		path = filepath.Join(os.TempDir(), "ingestor-checkpoint")
	}
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = true // the checkpoint must survive a process crash
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &BadgerCheckpointStore{db: db}, nil
}

func (s *BadgerCheckpointStore) LoadCheckpoint(ctx context.Context) (*uint64, error) {
	var blockNumber *uint64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(checkpointKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			parsed, err := strconv.ParseUint(string(val), 10, 64)
			if err != nil {
				return fmt.Errorf("corrupt checkpoint value %q: %v", val, err)
			}
			blockNumber = &parsed
			return nil
		})
	})
	if err != nil {
		return nil, &StorageError{Op: "checkpoint load", Err: err}
	}
	return blockNumber, nil
}

func (s *BadgerCheckpointStore) SaveCheckpoint(ctx context.Context, blockNumber uint64) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(checkpointKey, []byte(strconv.FormatUint(blockNumber, 10)))
	})
	if err != nil {
		return &StorageError{Op: "checkpoint save", Err: err}
	}
	return nil
}

func (s *BadgerCheckpointStore) Close() error {
	return s.db.Close()
}

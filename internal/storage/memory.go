package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryCheckpointStore is an in-process checkpoint store for tests and dev.
type MemoryCheckpointStore struct {
	mu         sync.Mutex
	checkpoint *uint64
}

func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{}
}

func (s *MemoryCheckpointStore) LoadCheckpoint(ctx context.Context) (*uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkpoint == nil {
		return nil, nil
	}
	value := *s.checkpoint
	return &value, nil
}

func (s *MemoryCheckpointStore) SaveCheckpoint(ctx context.Context, blockNumber uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	value := blockNumber
	s.checkpoint = &value
	return nil
}

func (s *MemoryCheckpointStore) Close() error {
	return nil
}

// Artifact is one flushed batch captured by MemorySink.
type Artifact struct {
	Name string
	Data []byte
}

// MemorySink captures artifacts in memory, in write order.
type MemorySink struct {
	mu        sync.Mutex
	artifacts []Artifact
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) WriteArtifact(ctx context.Context, name string, records []json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = append(s.artifacts, Artifact{Name: name, Data: encodeArtifact(records)})
	return nil
}

func (s *MemorySink) Artifacts() []Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Artifact, len(s.artifacts))
	copy(out, s.artifacts)
	return out
}

func (s *MemorySink) Close() error {
	return nil
}

package storage

import (
	"context"
	"testing"

	config "github.com/chainbatch/ingestor/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerCheckpointRoundTrip(t *testing.T) {
	store, err := NewBadgerCheckpointStore(&config.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	checkpoint, err := store.LoadCheckpoint(ctx)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)

	require.NoError(t, store.SaveCheckpoint(ctx, 42))
	checkpoint, err = store.LoadCheckpoint(ctx)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, uint64(42), *checkpoint)

	// save replaces, never appends
	require.NoError(t, store.SaveCheckpoint(ctx, 100))
	checkpoint, err = store.LoadCheckpoint(ctx)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, uint64(100), *checkpoint)
}

func TestBadgerCheckpointSurvivesReopen(t *testing.T) {
	path := t.TempDir()
	ctx := context.Background()

	store, err := NewBadgerCheckpointStore(&config.BadgerConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, store.SaveCheckpoint(ctx, 7))
	require.NoError(t, store.Close())

	reopened, err := NewBadgerCheckpointStore(&config.BadgerConfig{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	checkpoint, err := reopened.LoadCheckpoint(ctx)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, uint64(7), *checkpoint)
}

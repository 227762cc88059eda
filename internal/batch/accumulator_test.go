package batch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Number uint64 `json:"number"`
	Hash   string `json:"hash"`
}

func encoded(records []json.RawMessage) []byte {
	out := []byte{'['}
	for i, r := range records {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, r...)
	}
	return append(out, ']')
}

func TestSizeEstimateMatchesEncodedArtifact(t *testing.T) {
	accumulator := NewAccumulator()
	assert.Equal(t, 2, accumulator.SizeEstimate())

	for i := uint64(0); i < 10; i++ {
		require.NoError(t, accumulator.Append(record{Number: i, Hash: "0xabc"}))
	}
	assert.Equal(t, 10, accumulator.Len())

	estimate := accumulator.SizeEstimate()
	records := accumulator.Drain()
	assert.Len(t, encoded(records), estimate)
}

func TestSizeEstimateGrowsMonotonically(t *testing.T) {
	accumulator := NewAccumulator()
	previous := accumulator.SizeEstimate()
	for i := 0; i < 5; i++ {
		require.NoError(t, accumulator.Append(record{Number: uint64(i)}))
		assert.Greater(t, accumulator.SizeEstimate(), previous)
		previous = accumulator.SizeEstimate()
	}
}

func TestDrainResetsToBaseline(t *testing.T) {
	accumulator := NewAccumulator()
	fresh := accumulator.SizeEstimate()

	require.NoError(t, accumulator.Append(record{Number: 1}))
	records := accumulator.Drain()
	require.Len(t, records, 1)

	assert.Equal(t, fresh, accumulator.SizeEstimate())
	assert.Equal(t, 0, accumulator.Len())
	assert.Empty(t, accumulator.Drain())
}

func TestAppendPreservesOrder(t *testing.T) {
	accumulator := NewAccumulator()
	for i := uint64(100); i < 103; i++ {
		require.NoError(t, accumulator.Append(record{Number: i}))
	}

	var got []record
	require.NoError(t, json.Unmarshal(encoded(accumulator.Drain()), &got))
	require.Len(t, got, 3)
	assert.Equal(t, uint64(100), got[0].Number)
	assert.Equal(t, uint64(101), got[1].Number)
	assert.Equal(t, uint64(102), got[2].Number)
}

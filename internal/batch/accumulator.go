package batch

import (
	"encoding/json"
	"fmt"
)

// baseline is the serialized size of an empty batch ("[]").
const baseline = 2

// Accumulator buffers normalized records until the caller flushes them as one
// JSON array. Records are marshaled once on append so the size estimate is the
// exact artifact size, maintained incrementally instead of re-walking the
// buffer. Single-threaded use only.
type Accumulator struct {
	records []json.RawMessage
	size    int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{size: baseline}
}

func (a *Accumulator) Append(record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %v", err)
	}
	if len(a.records) > 0 {
		a.size++ // separator
	}
	a.records = append(a.records, data)
	a.size += len(data)
	return nil
}

func (a *Accumulator) Len() int {
	return len(a.records)
}

// SizeEstimate is the byte size the buffered records would occupy as one JSON
// array. Non-decreasing between drains, back to baseline after Drain.
func (a *Accumulator) SizeEstimate() int {
	return a.size
}

// Drain returns all buffered records and resets the accumulator.
func (a *Accumulator) Drain() []json.RawMessage {
	records := a.records
	a.records = nil
	a.size = baseline
	return records
}

package memory

import (
	"context"
	"errors"
	"sync"

	"erp-ledger/internal/sequence"
)

// SequenceStore is an in-memory per-prefix counter for demo/testing.
type SequenceStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewSequenceStore constructs a store.
func NewSequenceStore() *SequenceStore {
	return &SequenceStore{counters: make(map[string]int64)}
}

// Next allocates the next number for the prefix.
func (s *SequenceStore) Next(ctx context.Context, prefix string) (string, error) {
	_ = ctx
	if s == nil {
		return "", errors.New("memory sequence store: nil store")
	}
	if prefix == "" {
		return "", errors.New("memory sequence store: empty prefix")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[prefix]++
	return sequence.Format(prefix, s.counters[prefix]), nil
}

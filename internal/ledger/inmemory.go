package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is bounded: the oldest records are dropped past this many entries.
const inMemoryCap = 512

// InMemoryStore is a simple in-process ledger for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.records = append(s.records, record)
	if len(s.records) > inMemoryCap {
		s.records = s.records[len(s.records)-inMemoryCap:]
	}
	return nil
}

func (s *InMemoryStore) Recent(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]Record, 0, limit)
	for i := len(s.records) - 1; i >= len(s.records)-limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }

package auditlog

import (
	"context"
	"sync"
)

type MemStore struct {
	mu   sync.Mutex
	recs []Record
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *MemStore) ListByEvent(ctx context.Context, eventID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, r := range s.recs {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemStore) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.recs))
	copy(out, s.recs)
	return out
}

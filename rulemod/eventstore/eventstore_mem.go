package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/haven-social/warden/rulemod"
)

type MemStore struct {
	mu     sync.Mutex
	events []*rulemod.ModerationEvent
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Append(ctx context.Context, evt *rulemod.ModerationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *evt
	s.events = append(s.events, &cp)
	return nil
}

func (s *MemStore) ListWindow(ctx context.Context, since, until time.Time) ([]*rulemod.ModerationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*rulemod.ModerationEvent
	for _, evt := range s.events {
		if evt.OccurredAt.Before(since) || !evt.OccurredAt.Before(until) {
			continue
		}
		cp := *evt
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}

func (s *MemStore) TrimBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0]
	var removed int64
	for _, evt := range s.events {
		if evt.OccurredAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, evt)
	}
	s.events = kept
	return removed, nil
}

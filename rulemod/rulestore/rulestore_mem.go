package rulestore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haven-social/warden/rulemod"
)

type MemStore struct {
	mu    sync.RWMutex
	rules map[string]*rulemod.ModerationRule
}

func NewMemStore() *MemStore {
	return &MemStore{
		rules: make(map[string]*rulemod.ModerationRule),
	}
}

func (s *MemStore) Create(ctx context.Context, rule *rulemod.ModerationRule) error {
	if err := rulemod.ValidateRule(rule); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.Version = 1
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	cp := *rule
	s.rules[rule.ID] = &cp
	return nil
}

func (s *MemStore) Update(ctx context.Context, rule *rulemod.ModerationRule) error {
	if err := rulemod.ValidateRule(rule); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.rules[rule.ID]
	if !ok {
		return ErrNotFound
	}
	rule.Version = prev.Version + 1
	rule.CreatedAt = prev.CreatedAt
	rule.UpdatedAt = time.Now().UTC()
	cp := *rule
	s.rules[rule.ID] = &cp
	return nil
}

func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return ErrNotFound
	}
	delete(s.rules, id)
	return nil
}

func (s *MemStore) Get(ctx context.Context, id string) (*rulemod.ModerationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rule
	return &cp, nil
}

func (s *MemStore) List(ctx context.Context) ([]*rulemod.ModerationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*rulemod.ModerationRule, 0, len(s.rules))
	for _, rule := range s.rules {
		cp := *rule
		out = append(out, &cp)
	}
	return out, nil
}

// Package setstore holds named string sets (banned domains, flagged
// keywords, moderator rosters) referenced by in/not_in conditions via the
// "setRef" value form, so long shared lists live in one place instead of
// being inlined into every rule.
package setstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Membership is case-insensitive, matching how inline set values compare.
type SetStore interface {
	InSet(ctx context.Context, name, val string) (bool, error)
}

type MemSetStore struct {
	mu   sync.RWMutex
	sets map[string]map[string]bool
}

func NewMemSetStore() *MemSetStore {
	return &MemSetStore{
		sets: make(map[string]map[string]bool),
	}
}

func (s *MemSetStore) InSet(ctx context.Context, name, val string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[name]
	if !ok {
		return false, fmt.Errorf("not a known set: %s", name)
	}
	return set[strings.ToLower(val)], nil
}

func (s *MemSetStore) AddToSet(name string, vals ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[name]
	if !ok {
		set = make(map[string]bool)
		s.sets[name] = set
	}
	for _, v := range vals {
		set[strings.ToLower(v)] = true
	}
}

// Loads sets from a JSON file of the form {"set-name": ["val", ...], ...},
// replacing any sets with the same names.
func (s *MemSetStore) LoadFromFileJSON(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var parsed map[string][]string
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parsing set file %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, vals := range parsed {
		set := make(map[string]bool, len(vals))
		for _, v := range vals {
			set[strings.ToLower(v)] = true
		}
		s.sets[name] = set
	}
	return nil
}

package notes

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps notes in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	notes  map[string][]Note
	policy Policy
	now    func() time.Time
}

func NewMemoryStore(policy Policy) *MemoryStore {
	return &MemoryStore{notes: make(map[string][]Note), policy: policy, now: time.Now}
}

func (s *MemoryStore) Append(_ context.Context, userID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.notes[userID], Note{UserID: userID, Text: text, CreatedAt: s.now()})
	if limit := s.policy.MaxPerUser; limit > 0 && len(list) > limit {
		list = append([]Note(nil), list[len(list)-limit:]...)
	}
	s.notes[userID] = list
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID string) ([]Note, error) {
	cutoff := s.policy.cutoff(s.now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Note
	for _, n := range s.notes[userID] {
		if cutoff.IsZero() || !n.CreatedAt.Before(cutoff) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *MemoryStore) Prune(_ context.Context, now time.Time) (int, error) {
	cutoff := s.policy.cutoff(now)
	if cutoff.IsZero() {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for user, list := range s.notes {
		kept := list[:0]
		for _, n := range list {
			if n.CreatedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, n)
		}
		if len(kept) == 0 {
			delete(s.notes, user)
		} else {
			s.notes[user] = kept
		}
	}
	return removed, nil
}

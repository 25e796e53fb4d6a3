package main

import (
	"context"
	"sort"
	"sync"
)

// In-memory store implementations. Used when no DATABASE_URL is configured
// (local development) and by the test suite. Iteration order is made
// deterministic everywhere so repeated reads return identical results.

type memOrderedPair struct {
	from, to string
}

// MemoryStore implements ProfileStore, SwipeStore and MatchStore over
// mutex-guarded maps.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	swipes   map[memOrderedPair]*Swipe
	matches  map[string]*Match // keyed by canonical pair key
	byID     map[string]string // match id -> pair key
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*Profile),
		swipes:   make(map[memOrderedPair]*Swipe),
		matches:  make(map[string]*Match),
		byID:     make(map[string]string),
	}
}

// --- ProfileStore ---

func (s *MemoryStore) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) GetProfiles(ctx context.Context, userIDs []string) (map[string]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*Profile, len(userIDs))
	for _, id := range userIDs {
		if p, ok := s.profiles[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *MemoryStore) QueryCandidates(ctx context.Context, excluding map[string]struct{}, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		if _, skip := excluding[id]; skip {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *MemoryStore) PutProfile(ctx context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}

// DeleteProfile removes a profile. Account deletion itself is an external
// lifecycle concern; this exists for the seeder and tests.
func (s *MemoryStore) DeleteProfile(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
}

// --- SwipeStore ---

func (s *MemoryStore) PutSwipe(ctx context.Context, sw *Swipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memOrderedPair{from: sw.FromUserID, to: sw.ToUserID}
	cp := *sw
	if prev, ok := s.swipes[key]; ok {
		cp.CreatedAt = prev.CreatedAt
	}
	s.swipes[key] = &cp
	return nil
}

func (s *MemoryStore) GetSwipe(ctx context.Context, fromUserID, toUserID string) (*Swipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sw, ok := s.swipes[memOrderedPair{from: fromUserID, to: toUserID}]
	if !ok {
		return nil, nil
	}
	cp := *sw
	return &cp, nil
}

func (s *MemoryStore) ListSwipedIDs(ctx context.Context, fromUserID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{})
	for key := range s.swipes {
		if key.from == fromUserID {
			out[key.to] = struct{}{}
		}
	}
	return out, nil
}

// --- MatchStore ---

func (s *MemoryStore) CreateMatchIfAbsent(ctx context.Context, m *Match) (bool, *Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(m.UserA, m.UserB)
	if existing, ok := s.matches[key]; ok {
		cp := *existing
		return false, &cp, nil
	}
	cp := *m
	s.matches[key] = &cp
	s.byID[m.ID] = key
	out := cp
	return true, &out, nil
}

func (s *MemoryStore) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.byID[matchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	cp := *s.matches[key]
	return &cp, nil
}

func (s *MemoryStore) GetMatchByPair(ctx context.Context, userA, userB string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[pairKey(userA, userB)]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) ListMatches(ctx context.Context, userID string) ([]*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Match
	for _, m := range s.matches {
		if m.HasUser(userID) {
			cp := *m
			out = append(out, &cp)
		}
	}
	// Newest first, id as the reproducible tie-break.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MatchedAt.Equal(out[j].MatchedAt) {
			return out[i].MatchedAt.After(out[j].MatchedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) UpdateMatchStatus(ctx context.Context, matchID string, from, to MatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.byID[matchID]
	if !ok {
		return ErrMatchNotFound
	}
	m := s.matches[key]
	switch m.Status {
	case from:
		m.Status = to
		return nil
	case to:
		// Repeat transition, idempotent.
		return nil
	default:
		return ErrInvalidTransition
	}
}

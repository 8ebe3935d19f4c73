package store

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps state for the lifetime of the process
type MemoryStore struct {
	values map[string]string
	rounds map[string][]RoundRecord
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
		rounds: make(map[string][]RoundRecord),
	}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// RecordRound saves a settled round
func (s *MemoryStore) RecordRound(r RoundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.rounds[r.SessionID] = append(s.rounds[r.SessionID], r)
	return nil
}

// Stats aggregates the rounds of a session
func (s *MemoryStore) Stats(sessionID string) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{SessionID: sessionID}
	for _, r := range s.rounds[sessionID] {
		stats.RoundsPlayed++
		stats.TotalBets += r.Bet
		stats.TotalPayout += r.Payout
		switch r.Result {
		case "player":
			stats.RoundsWon++
		case "dealer":
			stats.RoundsLost++
		case "tie":
			stats.RoundsPushed++
		}
		if r.CreatedAt.After(stats.LastPlayed) {
			stats.LastPlayed = r.CreatedAt
		}
	}
	return stats, nil
}

// Rounds returns up to limit rounds of a session, most recent first
func (s *MemoryStore) Rounds(sessionID string, limit int) ([]RoundRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rounds := append([]RoundRecord(nil), s.rounds[sessionID]...)
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].Round > rounds[j].Round })
	if limit >= 0 && len(rounds) > limit {
		rounds = rounds[:limit]
	}
	return rounds, nil
}

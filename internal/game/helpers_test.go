package game

import (
	"errors"
	"testing"

	"github.com/calvinwijaya/blackjack/internal/randutil"
	"github.com/stretchr/testify/require"
)

// memoryStore is a minimal BankrollStore for tests.
type memoryStore map[string]string

func (m memoryStore) Get(key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memoryStore) Set(key, value string) error {
	m[key] = value
	return nil
}

// failingStore loads fine but refuses every write after the first failAfter.
type failingStore struct {
	memoryStore
	writes    int
	failAfter int
}

var errStoreDown = errors.New("store down")

func (f *failingStore) Set(key, value string) error {
	f.writes++
	if f.writes > f.failAfter {
		return errStoreDown
	}
	return f.memoryStore.Set(key, value)
}

func c(rank Rank, suit Suit) Card {
	return Card{Suit: suit, Rank: rank}
}

func cards(cs ...Card) []Card {
	return cs
}

// stackedDeck returns a full 52-card deck with top dealt first and the rest in
// canonical order behind it.
func stackedDeck(t *testing.T, top ...Card) *Deck {
	t.Helper()

	used := make(map[Card]bool, len(top))
	for _, card := range top {
		require.False(t, used[card], "duplicate card %s in stacked deck", card)
		used[card] = true
	}

	order := append([]Card(nil), top...)
	for _, card := range NewDeck(nil).Cards() {
		if !used[card] {
			order = append(order, card)
		}
	}
	return NewDeckFrom(order, randutil.New(1))
}

// recorder captures every event published by a session.
type recorder struct {
	events []Event
}

func (r *recorder) OnEvent(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) dealt() []CardDealtEvent {
	var out []CardDealtEvent
	for _, e := range r.events {
		if d, ok := e.(CardDealtEvent); ok {
			out = append(out, d)
		}
	}
	return out
}

func (r *recorder) settled() []RoundSettledEvent {
	var out []RoundSettledEvent
	for _, e := range r.events {
		if s, ok := e.(RoundSettledEvent); ok {
			out = append(out, s)
		}
	}
	return out
}

func (r *recorder) phases() []Phase {
	var out []Phase
	for _, e := range r.events {
		if p, ok := e.(PhaseChangedEvent); ok {
			out = append(out, p.Phase)
		}
	}
	return out
}

// newStackedSession creates a session dealing from a stacked deck that is
// never reshuffled, with bet already placed.
func newStackedSession(t *testing.T, bet int, top ...Card) (*Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	s, err := NewSession(memoryStore{},
		WithDeck(stackedDeck(t, top...)),
		WithReshuffleEachRound(false),
		WithSubscriber(rec),
	)
	require.NoError(t, err)
	require.NoError(t, s.PlaceBet(bet))
	return s, rec
}

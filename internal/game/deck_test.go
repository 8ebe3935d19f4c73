package game

import (
	"errors"
	"testing"

	"github.com/calvinwijaya/blackjack/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	d := NewDeck(randutil.New(1))
	require.Equal(t, 52, d.Count())

	seen := make(map[Card]bool)
	for _, card := range d.Cards() {
		assert.False(t, seen[card], "duplicate %s", card)
		seen[card] = true
	}
	assert.Len(t, seen, 52)
}

func TestShuffleIsPermutation(t *testing.T) {
	d := NewDeck(randutil.New(42))
	before := d.Cards()

	d.Shuffle()
	after := d.Cards()

	assert.ElementsMatch(t, before, after)
	assert.NotEqual(t, before, after, "a 52-card shuffle should move something")
}

func TestShuffleIsReproducibleWithSeed(t *testing.T) {
	a := NewDeck(randutil.New(7))
	b := NewDeck(randutil.New(7))
	a.Shuffle()
	b.Shuffle()
	assert.Equal(t, a.Cards(), b.Cards())
}

func TestShuffleCoversEveryPosition(t *testing.T) {
	// Over many shuffles of three cards every permutation must show up.
	rng := randutil.New(3)
	seen := make(map[[3]Card]int)
	for i := 0; i < 600; i++ {
		d := NewDeckFrom(cards(c(Ace, Hearts), c(Two, Hearts), c(Three, Hearts)), rng)
		d.Shuffle()
		got := d.Cards()
		seen[[3]Card{got[0], got[1], got[2]}]++
	}
	require.Len(t, seen, 6)
	for perm, n := range seen {
		assert.Greater(t, n, 50, "permutation %v is under-represented", perm)
	}
}

func TestDrawRemovesTopCard(t *testing.T) {
	d := NewDeckFrom(cards(c(King, Spades), c(Two, Clubs)), nil)

	card, err := d.Draw()
	require.NoError(t, err)
	assert.Equal(t, c(King, Spades), card)
	assert.Equal(t, 1, d.Count())
	assert.NotContains(t, d.Cards(), card)

	card, err = d.Draw()
	require.NoError(t, err)
	assert.Equal(t, c(Two, Clubs), card)

	_, err = d.Draw()
	assert.True(t, errors.Is(err, ErrEmptyDeck))
	assert.True(t, IsFatal(err))
	assert.Zero(t, d.Count())
}

func TestReconstituteAppendsToBottom(t *testing.T) {
	d := NewDeck(randutil.New(1))
	drawn := make([]Card, 0, 3)
	for i := 0; i < 3; i++ {
		card, err := d.Draw()
		require.NoError(t, err)
		drawn = append(drawn, card)
	}
	require.Equal(t, 49, d.Count())

	d.Reconstitute([]Card{drawn[2], drawn[0], drawn[1]})
	assert.Equal(t, 52, d.Count())
	assert.Equal(t, []Card{drawn[2], drawn[0], drawn[1]}, d.Cards()[49:])
	assert.ElementsMatch(t, NewDeck(nil).Cards(), d.Cards())
}

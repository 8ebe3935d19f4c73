package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankValue(t *testing.T) {
	tests := map[Rank]int{
		Ace: 11, Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7,
		Eight: 8, Nine: 9, Ten: 10, Jack: 10, Queen: 10, King: 10,
	}
	for rank, want := range tests {
		assert.Equal(t, want, rank.Value(), "rank %s", rank)
	}
	assert.Zero(t, Rank("1").Value())
}

func TestNewCard(t *testing.T) {
	card, err := NewCard(Spades, Queen)
	require.NoError(t, err)
	assert.Equal(t, "spades-Q", card.ID())
	assert.Equal(t, "Q♠", card.String())

	_, err = NewCard("stars", Queen)
	assert.Error(t, err)

	_, err = NewCard(Hearts, "11")
	assert.Error(t, err)
}

func TestZeroCard(t *testing.T) {
	assert.True(t, Card{}.IsZero())
	assert.Equal(t, "??", Card{}.String())
	assert.False(t, c(Ace, Hearts).IsZero())
}

package game

import (
	rand "math/rand/v2"
)

type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates a standard 52-card deck in canonical order. rng drives Shuffle.
func NewDeck(rng *rand.Rand) *Deck {
	deck := &Deck{
		cards: make([]Card, 0, len(Suits)*len(Ranks)),
		rng:   rng,
	}

	for _, suit := range Suits {
		for _, rank := range Ranks {
			deck.cards = append(deck.cards, Card{Suit: suit, Rank: rank})
		}
	}

	return deck
}

// NewDeckFrom creates a deck holding cards in the given order, front first.
func NewDeckFrom(cards []Card, rng *rand.Rand) *Deck {
	return &Deck{
		cards: append([]Card(nil), cards...),
		rng:   rng,
	}
}

// Shuffle randomizes the order of cards in the deck
func (d *Deck) Shuffle() {
	// Fisher-Yates shuffle algorithm
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top card from the deck
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrEmptyDeck
	}

	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, nil
}

// Count returns the number of cards left in the deck
func (d *Deck) Count() int {
	return len(d.cards)
}

// Reconstitute puts returned cards back at the bottom of the deck.
func (d *Deck) Reconstitute(cards []Card) {
	d.cards = append(d.cards, cards...)
}

// Cards returns a copy of the deck, front first.
func (d *Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}

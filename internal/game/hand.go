package game

import "fmt"

// Owner identifies whose hand a card belongs to.
type Owner string

const (
	OwnerPlayer Owner = "player"
	OwnerDealer Owner = "dealer"
)

// HandCard is a dealt card together with its visibility.
type HandCard struct {
	Card   Card `json:"card"`
	FaceUp bool `json:"faceUp"`
}

// Hand is the ordered list of cards dealt to one owner.
type Hand struct {
	owner Owner
	cards []HandCard
}

func NewHand(owner Owner) *Hand {
	return &Hand{owner: owner}
}

func (h *Hand) Owner() Owner {
	return h.owner
}

// AddCard appends card and returns its index in the hand.
func (h *Hand) AddCard(card Card, faceUp bool) int {
	h.cards = append(h.cards, HandCard{Card: card, FaceUp: faceUp})
	return len(h.cards) - 1
}

// Reveal turns the card at index face up. It reports false if the card was
// already face up.
func (h *Hand) Reveal(index int) (bool, error) {
	if index < 0 || index >= len(h.cards) {
		return false, fmt.Errorf("%s hand: card index %d out of range", h.owner, index)
	}
	if h.cards[index].FaceUp {
		return false, nil
	}
	h.cards[index].FaceUp = true
	return true, nil
}

// FirstHidden returns the index of the first face-down card, or -1.
func (h *Hand) FirstHidden() int {
	for i, hc := range h.cards {
		if !hc.FaceUp {
			return i
		}
	}
	return -1
}

// Clear empties the hand and returns the cards it held.
func (h *Hand) Clear() []Card {
	cards := h.AllCards()
	h.cards = nil
	return cards
}

func (h *Hand) Len() int {
	return len(h.cards)
}

// Cards returns a copy of the hand including face-down cards.
func (h *Hand) Cards() []HandCard {
	return append([]HandCard(nil), h.cards...)
}

// AllCards returns every card regardless of visibility.
func (h *Hand) AllCards() []Card {
	cards := make([]Card, len(h.cards))
	for i, hc := range h.cards {
		cards[i] = hc.Card
	}
	return cards
}

// VisibleCards returns the face-up cards in deal order.
func (h *Hand) VisibleCards() []Card {
	var cards []Card
	for _, hc := range h.cards {
		if hc.FaceUp {
			cards = append(cards, hc.Card)
		}
	}
	return cards
}

func (h *Hand) AllFaceUp() bool {
	return h.FirstHidden() == -1
}

// Masked returns the hand with face-down cards replaced by the zero Card.
func (h *Hand) Masked() []HandCard {
	cards := h.Cards()
	for i := range cards {
		if !cards[i].FaceUp {
			cards[i].Card = Card{}
		}
	}
	return cards
}

package game

import "fmt"

type Suit string
type Rank string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Suits and Ranks list every suit and rank in canonical deck order.
var (
	Suits = []Suit{Hearts, Diamonds, Clubs, Spades}
	Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}
)

var suitSymbols = map[Suit]string{
	Hearts:   "♥",
	Diamonds: "♦",
	Clubs:    "♣",
	Spades:   "♠",
}

// Card is an immutable playing card. Two cards with the same suit and rank
// are the same card.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// NewCard returns the card for suit and rank, or an error if either is unknown.
func NewCard(suit Suit, rank Rank) (Card, error) {
	if _, ok := suitSymbols[suit]; !ok {
		return Card{}, fmt.Errorf("unknown suit %q", suit)
	}
	if rank.Value() == 0 {
		return Card{}, fmt.Errorf("unknown rank %q", rank)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// Value returns the blackjack value of the rank, counting an Ace as 11.
func (r Rank) Value() int {
	switch r {
	case Ace:
		return 11
	case Ten, Jack, Queen, King:
		return 10
	case Two:
		return 2
	case Three:
		return 3
	case Four:
		return 4
	case Five:
		return 5
	case Six:
		return 6
	case Seven:
		return 7
	case Eight:
		return 8
	case Nine:
		return 9
	default:
		return 0
	}
}

// Value returns the blackjack value of the card, counting an Ace as 11.
func (c Card) Value() int {
	return c.Rank.Value()
}

// ID returns a stable identifier for the card, e.g. "hearts-A". Presentation
// layers key their visual elements on it.
func (c Card) ID() string {
	return string(c.Suit) + "-" + string(c.Rank)
}

// IsZero reports whether c is the zero Card, used for masked face-down cards.
func (c Card) IsZero() bool {
	return c == Card{}
}

func (c Card) String() string {
	if c.IsZero() {
		return "??"
	}
	return string(c.Rank) + suitSymbols[c.Suit]
}

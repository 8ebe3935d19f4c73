package game

const (
	blackjackValue = 21
	dealerStandsOn = 17
)

// Outcome is the result of a settled round.
type Outcome string

const (
	OutcomeNone   Outcome = ""
	OutcomePlayer Outcome = "player"
	OutcomeDealer Outcome = "dealer"
	OutcomeTie    Outcome = "tie"
)

// HandState is the evaluation of a list of cards.
type HandState struct {
	Value     int  `json:"value"`
	Blackjack bool `json:"isBlackjack"`
	Bust      bool `json:"isBust"`
	Soft      bool `json:"isSoft"`
}

// value returns the hand total and how many Aces still count as 11.
func value(cards []Card) (int, int) {
	score := 0
	aces := 0

	// First pass: calculate score treating aces as 11
	for _, card := range cards {
		if card.Rank == Ace {
			aces++
		}
		score += card.Value()
	}

	// Second pass: convert aces from 11 to 1 as needed to avoid busting
	for aces > 0 && score > blackjackValue {
		score -= 10
		aces--
	}

	return score, aces
}

// Value returns the blackjack total of cards.
func Value(cards []Card) int {
	score, _ := value(cards)
	return score
}

// IsSoft reports whether an Ace in cards is still counted as 11.
func IsSoft(cards []Card) bool {
	_, aces := value(cards)
	return aces > 0
}

// IsBlackjack reports a two-card 21.
func IsBlackjack(cards []Card) bool {
	return len(cards) == 2 && Value(cards) == blackjackValue
}

func IsBust(cards []Card) bool {
	return Value(cards) > blackjackValue
}

// Evaluate classifies cards.
func Evaluate(cards []Card) HandState {
	score, aces := value(cards)
	return HandState{
		Value:     score,
		Blackjack: len(cards) == 2 && score == blackjackValue,
		Bust:      score > blackjackValue,
		Soft:      aces > 0,
	}
}

// EvaluateHand classifies the face-up cards of h. Once every card is face up
// this is the evaluation of the whole hand.
func EvaluateHand(h *Hand) HandState {
	return Evaluate(h.VisibleCards())
}

// DetermineWinner compares two finished hands. Busts are decided first, then a
// blackjack beats any other 21, then the higher total wins.
func DetermineWinner(player, dealer []Card) Outcome {
	p := Evaluate(player)
	d := Evaluate(dealer)

	switch {
	case p.Bust:
		return OutcomeDealer
	case d.Bust:
		return OutcomePlayer
	case p.Blackjack && d.Blackjack:
		return OutcomeTie
	case p.Blackjack:
		return OutcomePlayer
	case d.Blackjack:
		return OutcomeDealer
	case p.Value > d.Value:
		return OutcomePlayer
	case d.Value > p.Value:
		return OutcomeDealer
	default:
		return OutcomeTie
	}
}

package store

import (
	"time"

	"github.com/calvinwijaya/blackjack/internal/game"
)

// NewRoundRecord builds the history row for a settled round. Hand values
// count every card, including a hole card left unrevealed after a player bust.
func NewRoundRecord(s *game.Session, e game.RoundSettledEvent, at time.Time) RoundRecord {
	return RoundRecord{
		RoundID:     e.RoundID,
		SessionID:   s.ID(),
		Round:       e.Round,
		Bet:         e.Bet,
		Result:      string(e.Result),
		Payout:      e.Payout,
		Bankroll:    e.Bankroll,
		PlayerValue: handValue(s.PlayerHand()),
		DealerValue: handValue(s.DealerHand()),
		CreatedAt:   at,
	}
}

func handValue(hand []game.HandCard) int {
	cards := make([]game.Card, len(hand))
	for i, hc := range hand {
		cards[i] = hc.Card
	}
	return game.Value(cards)
}

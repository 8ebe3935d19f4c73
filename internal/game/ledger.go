package game

import (
	"fmt"
	"strconv"
)

const (
	// DefaultStartingBankroll is the bankroll a new player starts with.
	DefaultStartingBankroll = 100

	bankrollKey = "bankroll"
)

// BankrollStore is the persisted state the ledger reads and writes. Only the
// bankroll is persisted; the current bet lives in memory for the round.
type BankrollStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Ledger holds the bankroll and the wager on the current round.
type Ledger struct {
	store      BankrollStore
	starting   int
	bankroll   int
	currentBet int
}

// NewLedger loads the bankroll from store, initializing it to starting if the
// store has none.
func NewLedger(store BankrollStore, starting int) (*Ledger, error) {
	if starting < 0 {
		return nil, fmt.Errorf("starting bankroll must not be negative: %d", starting)
	}
	l := &Ledger{store: store, starting: starting}

	raw, ok, err := store.Get(bankrollKey)
	if err != nil {
		return nil, fmt.Errorf("loading bankroll: %w", err)
	}
	if !ok {
		if err := l.commit(starting, 0); err != nil {
			return nil, err
		}
		return l, nil
	}

	bankroll, err := strconv.Atoi(raw)
	if err != nil || bankroll < 0 {
		return nil, fmt.Errorf("stored bankroll %q is not a valid amount", raw)
	}
	l.bankroll = bankroll
	return l, nil
}

func (l *Ledger) Bankroll() int {
	return l.bankroll
}

func (l *Ledger) CurrentBet() int {
	return l.currentBet
}

// PlaceBet refunds any bet already held, then moves amount from the bankroll
// into the wager. An amount that is not positive or exceeds the bankroll leaves
// no bet held and returns ErrInvalidBet.
func (l *Ledger) PlaceBet(amount int) error {
	available := l.bankroll + l.currentBet

	if amount <= 0 || amount > available {
		if err := l.commit(available, 0); err != nil {
			return err
		}
		if amount <= 0 {
			return fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidBet, amount)
		}
		return fmt.Errorf("%w: %d exceeds bankroll %d", ErrInvalidBet, amount, available)
	}

	return l.commit(available-amount, amount)
}

// ResolveBet pays out the wager for outcome and returns the amount credited:
// twice the bet on a player win, the stake on a tie, nothing on a dealer win.
func (l *Ledger) ResolveBet(outcome Outcome) (int, error) {
	var payout int
	switch outcome {
	case OutcomePlayer:
		payout = l.currentBet * 2
	case OutcomeTie:
		payout = l.currentBet
	case OutcomeDealer:
		payout = 0
	default:
		return 0, fmt.Errorf("cannot resolve bet for outcome %q", outcome)
	}

	if err := l.commit(l.bankroll+payout, 0); err != nil {
		return 0, err
	}
	return payout, nil
}

// Refund returns the held bet to the bankroll.
func (l *Ledger) Refund() (int, error) {
	refunded := l.currentBet
	if err := l.commit(l.bankroll+refunded, 0); err != nil {
		return 0, err
	}
	return refunded, nil
}

// ResetBankroll restores the starting bankroll and drops any held bet.
func (l *Ledger) ResetBankroll() error {
	return l.commit(l.starting, 0)
}

// commit persists bankroll before updating the in-memory state, so a failed
// write leaves the ledger as it was.
func (l *Ledger) commit(bankroll, bet int) error {
	if err := l.store.Set(bankrollKey, strconv.Itoa(bankroll)); err != nil {
		return fmt.Errorf("saving bankroll: %w", err)
	}
	l.bankroll = bankroll
	l.currentBet = bet
	return nil
}

package game

import (
	"errors"
	"fmt"
)

// Recoverable errors leave the session where it was; the caller may retry.
var (
	ErrInvalidBet        = errors.New("invalid bet")
	ErrNoBet             = errors.New("no bet placed")
	ErrInsufficientCards = errors.New("not enough cards to deal a round")
	ErrIllegalState      = errors.New("command not allowed in current phase")
)

// ErrEmptyDeck is fatal to the round in progress: the session halts and the
// round has to be cancelled.
var ErrEmptyDeck = errors.New("deck is empty")

// IllegalStateError reports a command issued in a phase that does not accept it.
type IllegalStateError struct {
	Op    string
	Phase Phase
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("%s: not allowed during %s", e.Op, e.Phase)
}

func (e *IllegalStateError) Unwrap() error {
	return ErrIllegalState
}

// IsFatal reports whether err leaves the round unable to complete.
func IsFatal(err error) bool {
	return errors.Is(err, ErrEmptyDeck)
}

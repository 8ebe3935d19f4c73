package store

import "github.com/calvinwijaya/blackjack/internal/db"

// KV is the persisted key-value state behind a ledger. It satisfies
// game.BankrollStore.
type KV interface {
	// Get returns the value under key and whether it exists
	Get(key string) (string, bool, error)

	// Set stores value under key
	Set(key, value string) error
}

type (
	RoundRecord = db.RoundResult
	Stats       = db.SessionStats
)

// History records settled rounds
type History interface {
	// RecordRound saves a settled round
	RecordRound(r RoundRecord) error

	// Stats aggregates the rounds of a session
	Stats(sessionID string) (*Stats, error)

	// Rounds returns up to limit rounds of a session, most recent first
	Rounds(sessionID string, limit int) ([]RoundRecord, error)
}

// Store is the full persistence surface used by the server
type Store interface {
	KV
	History
}

type prefixed struct {
	kv     KV
	prefix string
}

// Prefixed scopes every key of kv under prefix, so sessions sharing one store
// keep separate bankrolls.
func Prefixed(kv KV, prefix string) KV {
	return &prefixed{kv: kv, prefix: prefix}
}

func (p *prefixed) Get(key string) (string, bool, error) {
	return p.kv.Get(p.prefix + key)
}

func (p *prefixed) Set(key, value string) error {
	return p.kv.Set(p.prefix+key, value)
}

// SessionPrefix is the key prefix for a session's state.
func SessionPrefix(sessionID string) string {
	return "session:" + sessionID + ":"
}

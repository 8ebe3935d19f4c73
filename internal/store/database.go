package store

import (
	"github.com/calvinwijaya/blackjack/internal/db"
)

// DatabaseStore is a database implementation of Store
type DatabaseStore struct {
	db *db.Database
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database *db.Database) *DatabaseStore {
	return &DatabaseStore{
		db: database,
	}
}

func (s *DatabaseStore) Get(key string) (string, bool, error) {
	return s.db.GetValue(key)
}

func (s *DatabaseStore) Set(key, value string) error {
	return s.db.SetValue(key, value)
}

// RecordRound saves a settled round to the database
func (s *DatabaseStore) RecordRound(r RoundRecord) error {
	return s.db.SaveRoundResult(r)
}

// Stats aggregates the rounds of a session
func (s *DatabaseStore) Stats(sessionID string) (*Stats, error) {
	return s.db.GetSessionStats(sessionID)
}

// Rounds returns up to limit rounds of a session, most recent first
func (s *DatabaseStore) Rounds(sessionID string, limit int) ([]RoundRecord, error) {
	return s.db.GetRoundResults(sessionID, limit)
}

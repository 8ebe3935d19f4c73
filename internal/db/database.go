package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Database struct {
	db     *sql.DB
	driver string
}

// RoundResult is one settled round of a session.
type RoundResult struct {
	RoundID     string    `json:"roundId"`
	SessionID   string    `json:"sessionId"`
	Round       int       `json:"round"`
	Bet         int       `json:"bet"`
	Result      string    `json:"result"`
	Payout      int       `json:"payout"`
	Bankroll    int       `json:"bankroll"`
	PlayerValue int       `json:"playerValue"`
	DealerValue int       `json:"dealerValue"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SessionStats struct {
	SessionID    string    `json:"sessionId"`
	RoundsPlayed int       `json:"roundsPlayed"`
	RoundsWon    int       `json:"roundsWon"`
	RoundsLost   int       `json:"roundsLost"`
	RoundsPushed int       `json:"roundsPushed"`
	TotalBets    int       `json:"totalBets"`
	TotalPayout  int       `json:"totalPayout"`
	LastPlayed   time.Time `json:"lastPlayed"`
}

// NewDatabase opens a database connection for driver ("sqlite3" or "postgres")
// and creates the tables if needed.
func NewDatabase(driver, dsn string) (*Database, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	// Open database connection
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	// Set connection parameters
	if driver == DriverSQLite {
		// A single connection serializes writers and keeps in-memory databases intact.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{db: db, driver: driver}

	// Initialize database tables
	if err := d.initTables(); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

// initTables creates the necessary tables if they don't exist
func (d *Database) initTables() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating kv table: %w", err)
	}

	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS round_results (
			round_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			bet INTEGER NOT NULL,
			result TEXT NOT NULL,
			payout INTEGER NOT NULL,
			bankroll INTEGER NOT NULL,
			player_value INTEGER NOT NULL,
			dealer_value INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating round_results table: %w", err)
	}

	_, err = d.db.Exec(`CREATE INDEX IF NOT EXISTS idx_round_results_session ON round_results (session_id)`)
	if err != nil {
		return fmt.Errorf("error creating round_results index: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// rebind rewrites ? placeholders as $1, $2, ... for postgres.
func (d *Database) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// GetValue returns the value stored under key.
func (d *Database) GetValue(key string) (string, bool, error) {
	var value string
	err := d.db.QueryRow(d.rebind("SELECT value FROM kv WHERE key = ?"), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetValue stores value under key, replacing any previous value.
func (d *Database) SetValue(key, value string) error {
	_, err := d.db.Exec(d.rebind(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`), key, value, time.Now().UTC())
	return err
}

// SaveRoundResult records a settled round.
func (d *Database) SaveRoundResult(r RoundResult) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := d.db.Exec(d.rebind(`
		INSERT INTO round_results
			(round_id, session_id, round, bet, result, payout, bankroll, player_value, dealer_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		r.RoundID, r.SessionID, r.Round, r.Bet, r.Result, r.Payout, r.Bankroll,
		r.PlayerValue, r.DealerValue, r.CreatedAt.UTC())
	return err
}

// GetRoundResults returns up to limit rounds of a session, most recent first.
func (d *Database) GetRoundResults(sessionID string, limit int) ([]RoundResult, error) {
	rows, err := d.db.Query(d.rebind(`
		SELECT round_id, session_id, round, bet, result, payout, bankroll, player_value, dealer_value, created_at
		FROM round_results WHERE session_id = ? ORDER BY round DESC LIMIT ?
	`), sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RoundResult
	for rows.Next() {
		var r RoundResult
		if err := rows.Scan(&r.RoundID, &r.SessionID, &r.Round, &r.Bet, &r.Result, &r.Payout,
			&r.Bankroll, &r.PlayerValue, &r.DealerValue, &r.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// GetSessionStats aggregates the recorded rounds of a session.
func (d *Database) GetSessionStats(sessionID string) (*SessionStats, error) {
	stats := SessionStats{SessionID: sessionID}

	err := d.db.QueryRow(d.rebind(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN result = 'player' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN result = 'dealer' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN result = 'tie' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(bet), 0),
			COALESCE(SUM(payout), 0)
		FROM round_results WHERE session_id = ?
	`), sessionID).Scan(
		&stats.RoundsPlayed,
		&stats.RoundsWon,
		&stats.RoundsLost,
		&stats.RoundsPushed,
		&stats.TotalBets,
		&stats.TotalPayout,
	)
	if err != nil {
		return nil, fmt.Errorf("error aggregating rounds: %w", err)
	}

	// Get last played timestamp
	err = d.db.QueryRow(d.rebind(`
		SELECT created_at FROM round_results WHERE session_id = ? ORDER BY created_at DESC LIMIT 1
	`), sessionID).Scan(&stats.LastPlayed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("error getting last played: %w", err)
	}

	return &stats, nil
}

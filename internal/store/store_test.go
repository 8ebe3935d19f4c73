package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/calvinwijaya/blackjack/internal/db"
	"github.com/calvinwijaya/blackjack/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ game.BankrollStore = (*MemoryStore)(nil)
	_ game.BankrollStore = (*DatabaseStore)(nil)
	_ Store              = (*MemoryStore)(nil)
	_ Store              = (*DatabaseStore)(nil)
)

func newDatabaseStore(t *testing.T) *DatabaseStore {
	t.Helper()
	database, err := db.NewDatabase(db.DriverSQLite, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewDatabaseStore(database)
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("database", func(t *testing.T) { fn(t, newDatabaseStore(t)) })
}

func TestKV(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		_, ok, err := s.Get("bankroll")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Set("bankroll", "100"))
		require.NoError(t, s.Set("bankroll", "75"))

		v, ok, err := s.Get("bankroll")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "75", v)
	})
}

func TestPrefixedKeepsSessionsApart(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		a := Prefixed(s, SessionPrefix("a"))
		b := Prefixed(s, SessionPrefix("b"))

		require.NoError(t, a.Set("bankroll", "10"))
		require.NoError(t, b.Set("bankroll", "20"))

		v, _, err := a.Get("bankroll")
		require.NoError(t, err)
		assert.Equal(t, "10", v)

		v, ok, err := s.Get("session:b:bankroll")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "20", v)
	})
}

func TestHistory(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		records := []RoundRecord{
			{RoundID: "r1", SessionID: "s1", Round: 1, Bet: 10, Result: "player", Payout: 20, Bankroll: 110, PlayerValue: 20, DealerValue: 18, CreatedAt: base},
			{RoundID: "r2", SessionID: "s1", Round: 2, Bet: 10, Result: "dealer", Payout: 0, Bankroll: 100, PlayerValue: 23, DealerValue: 10, CreatedAt: base.Add(time.Minute)},
			{RoundID: "r3", SessionID: "s1", Round: 3, Bet: 5, Result: "tie", Payout: 5, Bankroll: 100, PlayerValue: 19, DealerValue: 19, CreatedAt: base.Add(2 * time.Minute)},
			{RoundID: "r4", SessionID: "s2", Round: 1, Bet: 50, Result: "player", Payout: 100, Bankroll: 150, PlayerValue: 21, DealerValue: 17, CreatedAt: base},
		}
		for _, r := range records {
			require.NoError(t, s.RecordRound(r))
		}

		stats, err := s.Stats("s1")
		require.NoError(t, err)
		assert.Equal(t, "s1", stats.SessionID)
		assert.Equal(t, 3, stats.RoundsPlayed)
		assert.Equal(t, 1, stats.RoundsWon)
		assert.Equal(t, 1, stats.RoundsLost)
		assert.Equal(t, 1, stats.RoundsPushed)
		assert.Equal(t, 25, stats.TotalBets)
		assert.Equal(t, 25, stats.TotalPayout)
		assert.True(t, stats.LastPlayed.Equal(base.Add(2*time.Minute)), "last played %v", stats.LastPlayed)

		rounds, err := s.Rounds("s1", 2)
		require.NoError(t, err)
		require.Len(t, rounds, 2)
		assert.Equal(t, "r3", rounds[0].RoundID)
		assert.Equal(t, "r2", rounds[1].RoundID)

		empty, err := s.Stats("nobody")
		require.NoError(t, err)
		assert.Zero(t, empty.RoundsPlayed)
		assert.True(t, empty.LastPlayed.IsZero())
	})
}

func TestBankrollSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "durable.db")

	database, err := db.NewDatabase(db.DriverSQLite, path)
	require.NoError(t, err)
	s, err := game.NewSession(Prefixed(NewDatabaseStore(database), SessionPrefix("tab")), game.WithSeed(1))
	require.NoError(t, err)
	require.NoError(t, s.PlaceBet(30))
	require.NoError(t, database.Close())

	database, err = db.NewDatabase(db.DriverSQLite, path)
	require.NoError(t, err)
	defer database.Close()

	again, err := game.NewSession(Prefixed(NewDatabaseStore(database), SessionPrefix("tab")), game.WithSeed(1))
	require.NoError(t, err)
	assert.Equal(t, 70, again.Bankroll(), "the bet was taken out of the persisted bankroll")
}

func TestNewRoundRecord(t *testing.T) {
	deck := game.NewDeckFrom([]game.Card{
		{Suit: game.Spades, Rank: game.Ten}, {Suit: game.Hearts, Rank: game.Nine},
		{Suit: game.Spades, Rank: game.Six}, {Suit: game.Hearts, Rank: game.Seven},
		{Suit: game.Clubs, Rank: game.King},
	}, nil)

	var settled game.RoundSettledEvent
	s, err := game.NewSession(NewMemoryStore(),
		game.WithID("tab"),
		game.WithDeck(deck),
		game.WithReshuffleEachRound(false),
		game.WithSubscriber(game.SubscriberFunc(func(e game.Event) {
			if ev, ok := e.(game.RoundSettledEvent); ok {
				settled = ev
			}
		})))
	require.NoError(t, err)
	require.NoError(t, s.PlaceBet(10))
	require.NoError(t, s.StartRound())
	require.NoError(t, s.Hit())

	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	record := NewRoundRecord(s, settled, at)
	assert.Equal(t, "tab", record.SessionID)
	assert.Equal(t, "dealer", record.Result)
	assert.Equal(t, 10, record.Bet)
	assert.Zero(t, record.Payout)
	assert.Equal(t, 90, record.Bankroll)
	assert.Equal(t, 26, record.PlayerValue)
	assert.Equal(t, 16, record.DealerValue, "the unrevealed hole card still counts")
	assert.Equal(t, at, record.CreatedAt)
}

package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	pg := &Database{driver: DriverPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", pg.rebind("SELECT a FROM t WHERE b = ? AND c = ?"))

	lite := &Database{driver: DriverSQLite}
	assert.Equal(t, "SELECT a FROM t WHERE b = ?", lite.rebind("SELECT a FROM t WHERE b = ?"))
}

func TestNewDatabaseRejectsUnknownDriver(t *testing.T) {
	_, err := NewDatabase("mysql", "whatever")
	assert.Error(t, err)
}

func TestSQLiteRoundTrip(t *testing.T) {
	d, err := NewDatabase(DriverSQLite, filepath.Join(t.TempDir(), "bj.db"))
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.SetValue("bankroll", "100"))
	v, ok, err := d.GetValue("bankroll")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "100", v)

	require.NoError(t, d.SaveRoundResult(RoundResult{RoundID: "r1", SessionID: "s", Round: 1, Bet: 10, Result: "tie", Payout: 10, Bankroll: 100}))
	assert.Error(t, d.SaveRoundResult(RoundResult{RoundID: "r1", SessionID: "s", Round: 1}), "round ids are unique")

	results, err := d.GetRoundResults("s", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tie", results[0].Result)
	assert.False(t, results[0].CreatedAt.IsZero())

	stats, err := d.GetSessionStats("s")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.RoundsPlayed)
	assert.Equal(t, 1, stats.RoundsPushed)
}

func TestInitTablesIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bj.db")
	d, err := NewDatabase(DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = NewDatabase(DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, d.Close())
}

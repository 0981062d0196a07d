package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func TestNewAndMigrate(t *testing.T) {
	db := newTestDB(t)

	// Migrate is idempotent
	require.NoError(t, db.Migrate())

	// All expected tables exist
	tables := []string{
		"users", "sessions", "wallets", "positions",
		"wallet_daily_snapshots", "wallet_intraday_snapshots", "current_quotes",
	}
	for _, table := range tables {
		var name string
		err := db.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestForeignKeyCascade(t *testing.T) {
	db := newTestDB(t)
	conn := db.Conn()

	_, err := conn.Exec("INSERT INTO users (id, email) VALUES ('u1', 'u1@example.com')")
	require.NoError(t, err)
	_, err = conn.Exec("INSERT INTO wallets (id, user_id, name, currency) VALUES ('w1', 'u1', 'Main', 'USD')")
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO positions (id, wallet_id, company_symbol, company_name, quantity, price_per_share)
		VALUES ('p1', 'w1', 'AAA', 'Triple A', 10, 50)`)
	require.NoError(t, err)

	_, err = conn.Exec("DELETE FROM wallets WHERE id = 'w1'")
	require.NoError(t, err)

	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM positions").Scan(&count))
	assert.Equal(t, 0, count, "deleting a wallet should cascade to its positions")
}

func TestWithTransactionCommit(t *testing.T) {
	db := newTestDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO users (id, email) VALUES ('u1', 'u1@example.com')")
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTransactionRollback(t *testing.T) {
	db := newTestDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO users (id, email) VALUES ('u1', 'u1@example.com')"); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 0, count, "failed transaction must be rolled back")
}

func TestHealthCheck(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.HealthCheck(context.Background()))
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
}

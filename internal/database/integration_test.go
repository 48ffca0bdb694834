package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	ctx := context.Background()
	db, err := Initialize(ctx, filepath.Join(t.TempDir(), "kawan_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(ctx, zaptest.NewLogger(t)))
	return db
}

func insertAccount(ctx context.Context, q DBTX, email string) (int64, error) {
	now := time.Now().UTC()
	return q.ExecReturningID(ctx,
		"INSERT INTO accounts (name, email, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		"Test", email, "hashedpass", "standard", now, now)
}

func countAccounts(t *testing.T, db *DB, email string) int {
	t.Helper()
	var count int
	err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM accounts WHERE email = ?", email).Scan(&count)
	require.NoError(t, err)
	return count
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.PingContext(ctx))

	tables := []string{"accounts", "password_reset_tokens", "businesses", "reviews", "favorites"}
	for _, table := range tables {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s not found", table)
	}

	// Running again is a no-op
	require.NoError(t, db.RunMigrations(ctx, zaptest.NewLogger(t)))
}

func TestExecReturningID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first, err := insertAccount(ctx, db, "first@example.com")
	require.NoError(t, err)
	second, err := insertAccount(ctx, db, "second@example.com")
	require.NoError(t, err)

	assert.Greater(t, second, first)
}

func TestWithTxCommitAndRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		_, err := insertAccount(ctx, tx, "commit@example.com")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countAccounts(t, db, "commit@example.com"))

	errBoom := errors.New("boom")
	err = db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		if _, err := insertAccount(ctx, tx, "rollback@example.com"); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, countAccounts(t, db, "rollback@example.com"))
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
			if _, err := insertAccount(ctx, tx, "panic@example.com"); err != nil {
				return err
			}
			panic("boom")
		})
	})
	assert.Equal(t, 0, countAccounts(t, db, "panic@example.com"))
}

func TestUniqueViolationFromSQLite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := insertAccount(ctx, db, "dupe@example.com")
	require.NoError(t, err)

	_, err = insertAccount(ctx, db, "dupe@example.com")
	require.Error(t, err)
	assert.True(t, db.Dialect.IsUniqueViolation(err))
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (account_id, token_digest, expires_at, used, created_at) VALUES (?, ?, ?, FALSE, ?)",
		9999, "digest", time.Now().UTC(), time.Now().UTC())
	assert.Error(t, err)
}

// TestConcurrentAccess tests concurrent database access
func TestConcurrentAccess(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := insertAccount(ctx, db, "concurrent@example.com")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var email string
			err := db.QueryRowContext(ctx, "SELECT email FROM accounts WHERE email = ?", "concurrent@example.com").Scan(&email)
			assert.NoError(t, err)
			assert.Equal(t, "concurrent@example.com", email)
		}()
	}
	wg.Wait()
}

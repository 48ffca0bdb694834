// Package dbtest opens migrated SQLite databases for package tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"kawanumkm/internal/database"
)

// New returns a migrated database backed by a file in the test's temp dir.
// The connection is closed when the test finishes.
func New(t testing.TB) *database.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Initialize(ctx, filepath.Join(t.TempDir(), "kawan_test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(ctx, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

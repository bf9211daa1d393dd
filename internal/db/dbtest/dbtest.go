// Package dbtest opens a migrated throw-away catalog database for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/bartek5186/catalogsync/internal/db"
	"gorm.io/gorm"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()
	h, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := h.Migrate(); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h.DB
}

package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/questpet/internal/database"
	"github.com/dukerupert/questpet/internal/model"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db DBTX, username string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(username, username+"@example.com", "hash", "", testNow)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

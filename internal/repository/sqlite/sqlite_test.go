package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/sakif/booker/internal/model"
)

// newTestDB returns a fresh in-memory database closed at test end.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser creates an account and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, PasswordHash: "$2a$04$notarealhash"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "booker.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	// Hold several connections at once so the pool has to open new ones.
	conns := make([]*sql.Conn, 3)
	for i := range conns {
		c, err := db.conn.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn() error = %v", err)
		}
		defer c.Close()
		conns[i] = c
	}

	for i, c := range conns {
		var on int
		if err := c.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on); err != nil {
			t.Fatalf("conn %d: PRAGMA foreign_keys error = %v", i, err)
		}
		if on != 1 {
			t.Errorf("conn %d: foreign_keys = %d, want 1", i, on)
		}
	}
}

func TestDeletingUserCascadesToFavorites(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "booker.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	user := createTestUser(t, db, "bob")
	ctx := context.Background()

	if _, err := db.Add(ctx, user.ID, model.Book{GoogleID: "g1"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := db.conn.ExecContext(ctx, "DELETE FROM users WHERE id = ?", user.ID); err != nil {
		t.Fatalf("deleting user error = %v", err)
	}

	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM favorite_books").Scan(&n); err != nil {
		t.Fatalf("count error = %v", err)
	}
	if n != 0 {
		t.Errorf("favorite_books rows after user delete = %d, want 0", n)
	}
}

package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/booker/internal/apperror"
	"github.com/sakif/booker/internal/model"
)

// openTestDB connects to BOOKER_TEST_POSTGRES_URL or skips.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("BOOKER_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("BOOKER_TEST_POSTGRES_URL not set")
	}
	db, err := Open(url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestFavoritesRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	u := &model.User{Username: "pg-" + xid.New().String(), PasswordHash: "hash"}
	require.NoError(t, db.CreateUser(ctx, u))

	first, err := db.Add(ctx, u.ID, model.Book{GoogleID: "g1", Title: "A", Authors: []string{"Ann"}})
	require.NoError(t, err)
	second, err := db.Add(ctx, u.ID, model.Book{GoogleID: "g1", Title: "A"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	books, err := db.GetAll(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, []string{"Ann"}, books[0].Authors)

	require.NoError(t, db.Remove(ctx, u.ID, "missing-id"))
	require.NoError(t, db.Remove(ctx, u.ID, "g1"))

	got, err := db.GetByGoogleID(ctx, u.ID, "g1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDuplicateUsernameConflicts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	name := "pg-" + xid.New().String()
	require.NoError(t, db.CreateUser(ctx, &model.User{Username: name, PasswordHash: "h"}))
	err := db.CreateUser(ctx, &model.User{Username: name, PasswordHash: "h"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestUnknownUserIsNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetAll(context.Background(), "ghost-"+xid.New().String())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/booker/internal/apperror"
	"github.com/sakif/booker/internal/model"
)

func newUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "hash"}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	db := New()
	newUser(t, db, "bob")

	err := db.CreateUser(context.Background(), &model.User{Username: "bob"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestGetUserByUsername(t *testing.T) {
	db := New()
	created := newUser(t, db, "bob")

	got, err := db.GetUserByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = db.GetUserByUsername(context.Background(), "alice")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAddTwiceKeepsOneEntry(t *testing.T) {
	db := New()
	u := newUser(t, db, "bob")
	ctx := context.Background()

	first, err := db.Add(ctx, u.ID, model.Book{GoogleID: "g1", Title: "A"})
	require.NoError(t, err)
	second, err := db.Add(ctx, u.ID, model.Book{GoogleID: "g1", Title: "A"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	books, err := db.GetAll(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "g1", books[0].GoogleID)
}

func TestConcurrentAddsOfSameBook(t *testing.T) {
	db := New()
	u := newUser(t, db, "bob")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = db.Add(ctx, u.ID, model.Book{GoogleID: "g1"})
		}()
	}
	wg.Wait()

	books, err := db.GetAll(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestGetAllReturnsCopy(t *testing.T) {
	db := New()
	u := newUser(t, db, "bob")
	ctx := context.Background()

	_, err := db.Add(ctx, u.ID, model.Book{GoogleID: "g1", Title: "A"})
	require.NoError(t, err)

	books, _ := db.GetAll(ctx, u.ID)
	books[0].Title = "mutated"

	again, _ := db.GetAll(ctx, u.ID)
	assert.Equal(t, "A", again[0].Title)
}

func TestGetByGoogleID(t *testing.T) {
	db := New()
	u := newUser(t, db, "bob")
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := db.Add(ctx, u.ID, model.Book{GoogleID: fmt.Sprintf("g%d", i), Title: fmt.Sprintf("T%d", i)})
		require.NoError(t, err)
	}

	got, err := db.GetByGoogleID(ctx, u.ID, "g2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "T2", got.Title)

	missing, err := db.GetByGoogleID(ctx, u.ID, "g9")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRemove(t *testing.T) {
	db := New()
	u := newUser(t, db, "bob")
	ctx := context.Background()

	a, _ := db.Add(ctx, u.ID, model.Book{GoogleID: "g1"})
	_, _ = db.Add(ctx, u.ID, model.Book{GoogleID: "g2"})

	require.NoError(t, db.Remove(ctx, u.ID, a.ID))
	require.NoError(t, db.Remove(ctx, u.ID, "missing-id"))

	books, _ := db.GetAll(ctx, u.ID)
	require.Len(t, books, 1)
	assert.Equal(t, "g2", books[0].GoogleID)
}

func TestDeletedUserIsNotFoundEverywhere(t *testing.T) {
	db := New()
	u := newUser(t, db, "bob")
	ctx := context.Background()
	require.NoError(t, db.DeleteUser(ctx, u.ID))

	_, err := db.GetAll(ctx, u.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	_, err = db.GetByGoogleID(ctx, u.ID, "g1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = db.Add(ctx, u.ID, model.Book{GoogleID: "g1"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, db.Remove(ctx, u.ID, "g1"), apperror.ErrNotFound)

	// The username is free again.
	newUser(t, db, "bob")
}

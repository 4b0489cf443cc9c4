package credentials_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/sample_app/internal/credentials"
	"github.com/Skotchmaster/sample_app/internal/dbtest"
	"github.com/Skotchmaster/sample_app/internal/repo"
)

func TestStore_FindByEmail_CaseInsensitive(t *testing.T) {
	rp := &repo.GormRepo{DB: dbtest.New(t)}
	store := &credentials.Store{Users: rp}
	u := dbtest.CreateUser(t, rp, "Example User", "user@example.com", false)

	got, err := store.FindByEmail(context.Background(), "  USER@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	byID, err := store.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)
}

func TestStore_AbsenceIsNotFound(t *testing.T) {
	rp := &repo.GormRepo{DB: dbtest.New(t)}
	store := &credentials.Store{Users: rp}

	_, err := store.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	_, err = store.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestStore_VerifyPassword(t *testing.T) {
	rp := &repo.GormRepo{DB: dbtest.New(t)}
	store := &credentials.Store{Users: rp}
	u := dbtest.CreateUser(t, rp, "Example User", "user@example.com", false)

	assert.True(t, store.VerifyPassword(u, dbtest.Password))
	assert.False(t, store.VerifyPassword(u, "wrong"))
	assert.False(t, store.VerifyPassword(nil, dbtest.Password))
}

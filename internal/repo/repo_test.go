package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/sample_app/internal/dbtest"
	"github.com/Skotchmaster/sample_app/internal/models"
	"github.com/Skotchmaster/sample_app/internal/repo"
)

func newRepo(t *testing.T) *repo.GormRepo {
	return &repo.GormRepo{DB: dbtest.New(t)}
}

func TestCreateUser_DuplicateEmailConflict(t *testing.T) {
	rp := newRepo(t)
	ctx := context.Background()

	dbtest.CreateUser(t, rp, "Example User", "user@example.com", false)

	err := rp.CreateUser(ctx, &models.User{Name: "Other", Email: "user@example.com", PasswordHash: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.ErrConflict)

	count, err := rp.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestFindUser_NotFound(t *testing.T) {
	rp := newRepo(t)
	ctx := context.Background()

	_, err := rp.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	_, err = rp.FindUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestSaveUser_EmailTakenByAnother(t *testing.T) {
	rp := newRepo(t)
	ctx := context.Background()

	a := dbtest.CreateUser(t, rp, "A", "a@example.com", false)
	dbtest.CreateUser(t, rp, "B", "b@example.com", false)

	a.Email = "b@example.com"
	assert.ErrorIs(t, rp.SaveUser(ctx, a), repo.ErrConflict)

	a.Email = "a@example.com"
	a.Name = "Renamed"
	require.NoError(t, rp.SaveUser(ctx, a))

	got, err := rp.FindUserByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
}

func TestDeleteUser_RemovesSessionsAndMicroposts(t *testing.T) {
	rp := newRepo(t)
	ctx := context.Background()

	u := dbtest.CreateUser(t, rp, "A", "a@example.com", false)
	now := time.Now().UTC()
	require.NoError(t, rp.CreateSession(ctx, &models.Session{
		ID: uuid.New(), TokenHash: "h1", UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, rp.CreateMicropost(ctx, &models.Micropost{UserID: u.ID, Content: "hello"}))

	require.NoError(t, rp.DeleteUser(ctx, u.ID))

	n, err := rp.CountSessions(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, total, err := rp.ListMicroposts(ctx, u.ID, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	assert.ErrorIs(t, rp.DeleteUser(ctx, u.ID), repo.ErrNotFound)
}

func TestDeleteSessionByTokenHash_UnknownIsNoop(t *testing.T) {
	rp := newRepo(t)
	require.NoError(t, rp.DeleteSessionByTokenHash(context.Background(), "missing"))
}

func TestDeleteMicropost_ScopedToOwner(t *testing.T) {
	rp := newRepo(t)
	ctx := context.Background()

	owner := dbtest.CreateUser(t, rp, "Owner", "owner@example.com", false)
	other := dbtest.CreateUser(t, rp, "Other", "other@example.com", false)

	post := &models.Micropost{UserID: owner.ID, Content: "mine"}
	require.NoError(t, rp.CreateMicropost(ctx, post))

	assert.ErrorIs(t, rp.DeleteMicropost(ctx, other.ID, post.ID), repo.ErrNotFound)
	require.NoError(t, rp.DeleteMicropost(ctx, owner.ID, post.ID))
}

func TestListUsers_Paginates(t *testing.T) {
	rp := newRepo(t)
	ctx := context.Background()

	for _, e := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		dbtest.CreateUser(t, rp, e, e, false)
	}

	items, total, err := rp.ListUsers(ctx, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, items, 1)
}

func TestClosedDatabase_IsUnavailable(t *testing.T) {
	gdb := dbtest.New(t)
	rp := &repo.GormRepo{DB: gdb}

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = rp.FindUserByEmail(context.Background(), "a@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.ErrUnavailable)
	assert.False(t, errors.Is(err, repo.ErrNotFound))
}

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sample_app/internal/dbtest"
	"github.com/Skotchmaster/sample_app/internal/repo"
	"github.com/Skotchmaster/sample_app/internal/session"
)

func run(t *testing.T, gdb *gorm.DB, args ...string) (string, error) {
	t.Helper()
	a := &app{open: func(context.Context) (*gorm.DB, error) { return gdb, nil }}
	root := newRootCmd(a)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCreateAndCount(t *testing.T) {
	gdb := dbtest.New(t)

	out, err := run(t, gdb, "create", "--name", "Admin", "--email", "Admin@Example.com", "--password", "foobar", "--admin")
	require.NoError(t, err)
	assert.Contains(t, out, "admin@example.com admin=true")

	rp := &repo.GormRepo{DB: gdb}
	u, err := rp.FindUserByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.True(t, u.Admin)

	out, err = run(t, gdb, "count")
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(out))

	_, err = run(t, gdb, "create", "--name", "Bad", "--email", "bad", "--password", "foo")
	assert.Error(t, err)
}

func TestAdminToggle(t *testing.T) {
	gdb := dbtest.New(t)
	rp := &repo.GormRepo{DB: gdb}
	u := dbtest.CreateUser(t, rp, "Example User", "user@example.com", false)

	_, err := run(t, gdb, "admin", "user@example.com", "true")
	require.NoError(t, err)
	got, err := rp.FindUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.Admin)

	_, err = run(t, gdb, "admin", u.ID.String(), "false")
	require.NoError(t, err)
	got, err = rp.FindUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, got.Admin)

	_, err = run(t, gdb, "admin", "user@example.com", "maybe")
	assert.Error(t, err)
	_, err = run(t, gdb, "admin", "ghost@example.com", "true")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestRevokeSessions(t *testing.T) {
	gdb := dbtest.New(t)
	rp := &repo.GormRepo{DB: gdb}
	u := dbtest.CreateUser(t, rp, "Example User", "user@example.com", false)

	mgr := &session.Manager{Store: rp, Secret: []byte("cli-secret")}
	s, err := mgr.Start(context.Background(), u.ID, session.Meta{})
	require.NoError(t, err)

	out, err := run(t, gdb, "sessions", "user@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "1 session(s) for user@example.com")

	out, err = run(t, gdb, "revoke-sessions", "user@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "revoked 1 session(s)")

	out, err = run(t, gdb, "sessions", u.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "0 session(s) for user@example.com")

	got, err := mgr.Resolve(context.Background(), s.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

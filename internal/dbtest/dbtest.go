// Package dbtest provides migrated in-memory databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sample_app/internal/db"
	"github.com/Skotchmaster/sample_app/internal/hash"
	"github.com/Skotchmaster/sample_app/internal/models"
	"github.com/Skotchmaster/sample_app/internal/repo"
)

const Password = "foobar"

func New(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

// CreateUser stores a user whose password is Password.
func CreateUser(t *testing.T, rp *repo.GormRepo, name, email string, admin bool) *models.User {
	t.Helper()

	pw, err := hash.HashPassword(Password)
	require.NoError(t, err)

	u := &models.User{Name: name, Email: email, PasswordHash: pw, Admin: admin}
	require.NoError(t, rp.CreateUser(context.Background(), u))
	return u
}

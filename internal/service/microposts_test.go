package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/sample_app/internal/dbtest"
	"github.com/Skotchmaster/sample_app/internal/repo"
	"github.com/Skotchmaster/sample_app/internal/service"
)

func TestMicroposts(t *testing.T) {
	ctx := context.Background()
	rp := &repo.GormRepo{DB: dbtest.New(t)}
	svc := &service.MicropostService{Repo: rp}
	owner := dbtest.CreateUser(t, rp, "Owner", "owner@example.com", false)
	other := dbtest.CreateUser(t, rp, "Other", "other@example.com", false)

	m, err := svc.Create(ctx, owner, "Lorem ipsum")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, m.UserID)

	_, err = svc.Create(ctx, owner, "   ")
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = svc.Create(ctx, owner, strings.Repeat("a", service.MaxMicropostLength+1))
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = svc.Create(ctx, owner, strings.Repeat("a", service.MaxMicropostLength))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Destroy(ctx, other, m.ID), repo.ErrNotFound)

	page, err := svc.ListByUser(ctx, owner.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	require.NoError(t, svc.Destroy(ctx, owner, m.ID))
	page, err = svc.ListByUser(ctx, owner.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

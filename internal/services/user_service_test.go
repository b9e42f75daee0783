package services

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	user, err := f.users.SyncIdentity(ctx, "A", "ana@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "ana", user.DisplayName)

	user, err = f.users.SyncIdentity(ctx, "A", "ana@example.com", "Ana")
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.DisplayName)

	_, err = f.users.SyncIdentity(ctx, "", "x@example.com", "")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestUpdateProfileComputesAge(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.users.now = func() time.Time { return time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC) }

	_, err := f.users.SyncIdentity(ctx, "A", "ana@example.com", "Ana")
	require.NoError(t, err)

	user, err := f.users.UpdateProfile(ctx, "A", models.UpdateProfileRequest{Address: " Calle 1 ", BirthDate: "1990-06-16"})
	require.NoError(t, err)
	assert.Equal(t, "Calle 1", user.Address)
	require.NotNil(t, user.Age)
	assert.Equal(t, 33, *user.Age)

	_, err = f.users.UpdateProfile(ctx, "A", models.UpdateProfileRequest{BirthDate: "16/06/1990"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.users.UpdateProfile(ctx, "A", models.UpdateProfileRequest{BirthDate: "2030-01-01"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.users.UpdateProfile(ctx, "nobody", models.UpdateProfileRequest{Address: "x"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestEmailOf(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.users.SyncIdentity(ctx, "A", "a@x.com", "")
	require.NoError(t, err)

	email, err := f.users.EmailOf(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)

	_, err = f.users.EmailOf(ctx, "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

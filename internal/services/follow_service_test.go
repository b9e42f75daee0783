package services

import (
	"context"
	"testing"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowSelfIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.follows.Follow(ctx, "X", "X")
	require.NoError(t, err)
	assert.False(t, created)

	followers, err := f.follows.GetFollowers(ctx, "X")
	require.NoError(t, err)
	assert.Empty(t, followers)

	following, err := f.follows.GetFollowing(ctx, "X")
	require.NoError(t, err)
	assert.Empty(t, following)

	_, err = f.store.Profiles.GetProfile(ctx, "X")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Empty(t, f.messages.All())
}

func TestFollowEnsuresProfilesAndNotifiesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, err := f.users.SyncIdentity(ctx, "B", "b@example.com", "Beto")
	require.NoError(t, err)

	created, err := f.follows.Follow(ctx, "B", "A")
	require.NoError(t, err)
	assert.True(t, created)

	for _, uid := range []string{"A", "B"} {
		profile, err := f.store.Profiles.GetProfile(ctx, uid)
		require.NoError(t, err)
		assert.True(t, profile.IsNotificationsEnabled)
	}

	created, err = f.follows.Follow(ctx, "B", "A")
	require.NoError(t, err)
	assert.False(t, created)

	msgs := f.messagesOfType(models.NotificationNewFollower)
	require.Len(t, msgs, 1)
	assert.Equal(t, "A", msgs[0].RecipientID)
	assert.Equal(t, "B", msgs[0].SenderID)
	assert.Equal(t, "Beto comenzó a seguirte", msgs[0].Body)
}

func TestFollowThenUnfollowClearsBothLookups(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.follows.Follow(ctx, "B", "A")
	require.NoError(t, err)

	followers, err := f.follows.GetFollowers(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, followers)
	following, err := f.follows.GetFollowing(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, following)

	removed, err := f.follows.Unfollow(ctx, "B", "A")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	followers, err = f.follows.GetFollowers(ctx, "A")
	require.NoError(t, err)
	assert.Empty(t, followers)
	following, err = f.follows.GetFollowing(ctx, "B")
	require.NoError(t, err)
	assert.Empty(t, following)

	ok, err := f.follows.IsFollowing(ctx, "B", "A")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnfollowWithoutEdge(t *testing.T) {
	f := newFixture()
	removed, err := f.follows.Unfollow(context.Background(), "B", "A")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/quest-tracker/internal/store"
	"github.com/nhle/quest-tracker/tests/testutil"
)

func TestProfileStoreCreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestProfileStore(t)

	p, err := s.CreateProfile(ctx, "  Mina ")
	require.NoError(t, err)
	assert.Equal(t, "Mina", p.DisplayName)
	assert.Len(t, p.FriendCode, 6)

	got, err := s.FindByFriendCode(ctx, "#"+p.FriendCode)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	byName, err := s.FindByDisplayName(ctx, "Mina")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byName.ID)

	_, err = s.FindByFriendCode(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.CreateProfile(ctx, " ")
	assert.Error(t, err)
}

func TestProfileStorePointsAndStreak(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestProfileStore(t)

	p, err := s.CreateProfile(ctx, "Jun")
	require.NoError(t, err)

	require.NoError(t, s.IncrementPoints(ctx, p.ID, 50))
	require.NoError(t, s.IncrementPoints(ctx, p.ID, -20))
	require.NoError(t, s.SetStreak(ctx, p.ID, 4))

	got, err := s.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.TotalPoints)
	assert.Equal(t, 4, got.Streak)

	err = s.IncrementPoints(ctx, "nobody", 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProfileStoreFriendships(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestProfileStore(t)

	a, err := s.CreateProfile(ctx, "A")
	require.NoError(t, err)
	b, err := s.CreateProfile(ctx, "B")
	require.NoError(t, err)
	c, err := s.CreateProfile(ctx, "C")
	require.NoError(t, err)

	req, err := s.CreateFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	again, err := s.CreateFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, again.ID)

	incoming, err := s.ListIncomingRequests(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "A", incoming[0].FromName)

	require.NoError(t, s.AddFriend(ctx, a.ID, b.ID))
	require.NoError(t, s.AddFriend(ctx, b.ID, a.ID))
	require.NoError(t, s.AddFriend(ctx, a.ID, b.ID))
	require.NoError(t, s.AddFriend(ctx, a.ID, c.ID))
	require.NoError(t, s.DeleteFriendRequest(ctx, req.ID))
	assert.ErrorIs(t, s.DeleteFriendRequest(ctx, req.ID), store.ErrNotFound)

	require.NoError(t, s.IncrementPoints(ctx, c.ID, 90))
	require.NoError(t, s.IncrementPoints(ctx, b.ID, 40))
	require.NoError(t, s.IncrementPoints(ctx, a.ID, 60))

	friends, err := s.ListFriends(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, friends, 2)
	assert.Equal(t, c.ID, friends[0].ID)
	assert.Equal(t, b.ID, friends[1].ID)

	above, err := s.CountFriendsAbove(ctx, a.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, 1, above)

	ok, err := s.IsFriend(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.RemoveFriend(ctx, a.ID, b.ID))
	require.NoError(t, s.RemoveFriend(ctx, a.ID, b.ID))
	ok, err = s.IsFriend(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	top, err := s.TopProfiles(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, c.ID, top[0].ID)

	n, err := s.CountProfilesAbove(ctx, b.ID, 40)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

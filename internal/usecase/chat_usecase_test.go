package usecase

import (
	"context"
	"testing"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	store *memStore
	hub   *liveHub
	chat  ChatUsecase
	alice models.ObjectID
	bob   models.ObjectID
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	store := newMemStore()
	hub := newLiveHub(fakeMessages{store}, 50)
	f := &chatFixture{
		store: store,
		hub:   hub,
		chat:  NewChatUsecase(fakeChannels{store}, fakeMembers{store}, fakeUsers{store}, hub),
		alice: models.NewObjectID(),
		bob:   models.NewObjectID(),
	}
	store.users[f.alice] = models.User{ID: f.alice, Name: "Alice"}
	store.users[f.bob] = models.User{ID: f.bob, Name: "Bob"}
	return f
}

func TestCreateChannel(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	channel, err := f.chat.CreateChannel(ctx, f.alice, CreateChannelParams{Name: "  general ", Type: models.ChannelTypePublic})
	require.NoError(t, err)
	assert.Equal(t, "general", channel.Name)

	members, err := f.chat.ListMembers(ctx, f.bob, channel.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, RoleOwner, members[0].Role)

	channels, err := f.chat.ListChannels(ctx, f.alice)
	require.NoError(t, err)
	assert.Len(t, channels, 1)

	_, err = f.chat.CreateChannel(ctx, f.alice, CreateChannelParams{Name: " ", Type: models.ChannelTypePublic})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	_, err = f.chat.CreateChannel(ctx, f.alice, CreateChannelParams{Name: "x", Type: models.ChannelTypeDM})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestOpenDMIsReused(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	dm, err := f.chat.OpenDM(ctx, f.alice, f.bob)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelTypeDM, dm.Type)
	assert.Equal(t, "Bob", dm.Name)

	again, err := f.chat.OpenDM(ctx, f.bob, f.alice)
	require.NoError(t, err)
	assert.Equal(t, dm.ID, again.ID)

	members, err := f.chat.ListMembers(ctx, f.alice, dm.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	_, err = f.chat.OpenDM(ctx, f.alice, f.alice)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	_, err = f.chat.OpenDM(ctx, f.alice, models.NewObjectID())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMembershipRules(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	carol := models.NewObjectID()

	public, err := f.chat.CreateChannel(ctx, f.alice, CreateChannelParams{Name: "general", Type: models.ChannelTypePublic})
	require.NoError(t, err)
	private, err := f.chat.CreateChannel(ctx, f.alice, CreateChannelParams{Name: "staff", Type: models.ChannelTypePrivate})
	require.NoError(t, err)
	dm, err := f.chat.OpenDM(ctx, f.alice, f.bob)
	require.NoError(t, err)

	require.NoError(t, f.chat.JoinChannel(ctx, f.bob, public.ID))
	require.NoError(t, f.chat.JoinChannel(ctx, f.bob, public.ID))
	assert.ErrorIs(t, f.chat.JoinChannel(ctx, f.bob, private.ID), models.ErrForbidden)
	assert.ErrorIs(t, f.chat.JoinChannel(ctx, carol, dm.ID), models.ErrForbidden)
	assert.ErrorIs(t, f.chat.LeaveChannel(ctx, f.bob, dm.ID), models.ErrForbidden)

	_, err = f.chat.ListMembers(ctx, carol, private.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = f.chat.ListMembers(ctx, carol, dm.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	require.NoError(t, f.chat.LeaveChannel(ctx, f.bob, public.ID))
	assert.ErrorIs(t, f.chat.LeaveChannel(ctx, f.bob, public.ID), models.ErrNotFound)
}

func TestSubscribeChecksAccess(t *testing.T) {
	f := newChatFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	private, err := f.chat.CreateChannel(ctx, f.alice, CreateChannelParams{Name: "staff", Type: models.ChannelTypePrivate})
	require.NoError(t, err)

	_, err = f.chat.Subscribe(ctx, f.bob, private.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	batches, err := f.chat.Subscribe(ctx, f.alice, private.ID)
	require.NoError(t, err)
	first := <-batches
	assert.Empty(t, first.Messages)
	assert.Equal(t, models.LiveRange{}, first.Range)
}

func TestOwnerJoiningKeepsRole(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	channel, err := f.chat.CreateChannel(ctx, f.alice, CreateChannelParams{Name: "general", Type: models.ChannelTypePublic})
	require.NoError(t, err)
	require.NoError(t, f.chat.JoinChannel(ctx, f.alice, channel.ID))
	require.NoError(t, f.chat.JoinChannel(ctx, f.bob, channel.ID))

	members, err := f.chat.ListMembers(ctx, f.alice, channel.ID)
	require.NoError(t, err)
	roles := map[models.ObjectID]string{}
	for _, m := range members {
		roles[m.UserID] = m.Role
	}
	assert.Equal(t, map[models.ObjectID]string{f.alice: RoleOwner, f.bob: RoleMember}, roles)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
)

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

type CreateChannelParams struct {
	Name  string
	Topic string
	Type  models.ChannelType
}

// ChatUsecase manages channels, direct messages and membership.
type ChatUsecase interface {
	ListChannels(ctx context.Context, userID models.ObjectID) ([]models.Channel, error)
	CreateChannel(ctx context.Context, userID models.ObjectID, params CreateChannelParams) (*models.Channel, error)
	// OpenDM returns the direct message channel of the two users, creating
	// it on first use.
	OpenDM(ctx context.Context, userID, otherID models.ObjectID) (*models.Channel, error)
	JoinChannel(ctx context.Context, userID, channelID models.ObjectID) error
	LeaveChannel(ctx context.Context, userID, channelID models.ObjectID) error
	ListMembers(ctx context.Context, userID, channelID models.ObjectID) ([]models.ChannelMember, error)
	// Subscribe opens the live window of a channel the user may read.
	Subscribe(ctx context.Context, userID, channelID models.ObjectID) (<-chan models.LiveBatch, error)
}

type chatUsecase struct {
	access   accessPolicy
	channels mongodb.ChannelRepository
	members  mongodb.MemberRepository
	users    mongodb.UserRepository
	hub      LiveHub
}

func NewChatUsecase(
	channels mongodb.ChannelRepository,
	members mongodb.MemberRepository,
	users mongodb.UserRepository,
	hub LiveHub,
) ChatUsecase {
	return &chatUsecase{
		access:   accessPolicy{channels: channels, members: members},
		channels: channels,
		members:  members,
		users:    users,
		hub:      hub,
	}
}

func (uc *chatUsecase) ListChannels(ctx context.Context, userID models.ObjectID) ([]models.Channel, error) {
	ids, err := uc.members.ListChannelIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.channels.ListByIDs(ctx, ids)
}

func (uc *chatUsecase) CreateChannel(ctx context.Context, userID models.ObjectID, params CreateChannelParams) (*models.Channel, error) {
	if params.Type == models.ChannelTypeDM {
		return nil, fmt.Errorf("direct messages are opened with OpenDM: %w", models.ErrInvalidArgument)
	}
	channel := &models.Channel{
		Name:      strings.TrimSpace(params.Name),
		Topic:     strings.TrimSpace(params.Topic),
		Type:      params.Type,
		CreatedBy: userID,
	}
	if channel.Name == "" {
		return nil, fmt.Errorf("channel name is empty: %w", models.ErrInvalidArgument)
	}
	if err := uc.channels.Create(ctx, channel); err != nil {
		return nil, err
	}
	if _, err := uc.members.Add(ctx, channel.ID, userID, RoleOwner); err != nil {
		return nil, err
	}
	log.Infow(ctx, "channel created", "channel_id", channel.ID, "type", channel.Type)
	return channel, nil
}

func (uc *chatUsecase) OpenDM(ctx context.Context, userID, otherID models.ObjectID) (*models.Channel, error) {
	if userID == otherID {
		return nil, fmt.Errorf("cannot open a direct message with yourself: %w", models.ErrInvalidArgument)
	}
	other, err := uc.users.GetByID(ctx, otherID)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", otherID, err)
	}

	key := dmKey(userID, otherID)
	channel, err := uc.channels.GetByDMKey(ctx, key)
	if err == nil {
		return channel, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	channel = &models.Channel{
		Name:      other.Name,
		Type:      models.ChannelTypeDM,
		CreatedBy: userID,
		DMKey:     key,
	}
	if err := uc.channels.Create(ctx, channel); err != nil {
		// lost a race with the other member
		if errors.Is(err, models.ErrConflict) {
			return uc.channels.GetByDMKey(ctx, key)
		}
		return nil, err
	}
	for _, id := range []models.ObjectID{userID, otherID} {
		if _, err := uc.members.Add(ctx, channel.ID, id, RoleMember); err != nil {
			return nil, err
		}
	}
	return channel, nil
}

func (uc *chatUsecase) JoinChannel(ctx context.Context, userID, channelID models.ObjectID) error {
	channel, err := uc.channels.GetByID(ctx, channelID)
	if err != nil {
		return fmt.Errorf("get channel %s: %w", channelID, err)
	}
	switch channel.Type {
	case models.ChannelTypeDM:
		return fmt.Errorf("direct messages have a fixed member set: %w", models.ErrForbidden)
	case models.ChannelTypePrivate:
		return fmt.Errorf("private channels are invite only: %w", models.ErrForbidden)
	}
	_, err = uc.members.Add(ctx, channelID, userID, RoleMember)
	return err
}

func (uc *chatUsecase) LeaveChannel(ctx context.Context, userID, channelID models.ObjectID) error {
	channel, err := uc.channels.GetByID(ctx, channelID)
	if err != nil {
		return fmt.Errorf("get channel %s: %w", channelID, err)
	}
	if channel.Type == models.ChannelTypeDM {
		return fmt.Errorf("direct messages have a fixed member set: %w", models.ErrForbidden)
	}
	return uc.members.Remove(ctx, channelID, userID)
}

func (uc *chatUsecase) ListMembers(ctx context.Context, userID, channelID models.ObjectID) ([]models.ChannelMember, error) {
	if _, err := uc.access.readable(ctx, userID, channelID); err != nil {
		return nil, err
	}
	return uc.members.ListByChannel(ctx, channelID)
}

func (uc *chatUsecase) Subscribe(ctx context.Context, userID, channelID models.ObjectID) (<-chan models.LiveBatch, error) {
	if _, err := uc.access.readable(ctx, userID, channelID); err != nil {
		return nil, err
	}
	return uc.hub.Subscribe(ctx, channelID)
}

func dmKey(a, b models.ObjectID) string {
	pair := []string{string(a), string(b)}
	slices.Sort(pair)
	return strings.Join(pair, ":")
}

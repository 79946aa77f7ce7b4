package usecase

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/internal/repo/mongodb"
)

// accessPolicy decides who may read and post in a channel. Public channels
// are readable by anyone; posting always requires membership.
type accessPolicy struct {
	channels mongodb.ChannelRepository
	members  mongodb.MemberRepository
}

func (p accessPolicy) readable(ctx context.Context, userID, channelID models.ObjectID) (*models.Channel, error) {
	channel, err := p.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("get channel %s: %w", channelID, err)
	}
	if !channel.Restricted() {
		return channel, nil
	}
	if err := p.requireMember(ctx, userID, channelID); err != nil {
		return nil, err
	}
	return channel, nil
}

func (p accessPolicy) writable(ctx context.Context, userID, channelID models.ObjectID) (*models.Channel, error) {
	channel, err := p.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("get channel %s: %w", channelID, err)
	}
	if err := p.requireMember(ctx, userID, channelID); err != nil {
		return nil, err
	}
	return channel, nil
}

func (p accessPolicy) requireMember(ctx context.Context, userID, channelID models.ObjectID) error {
	ok, err := p.members.IsMember(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %s in channel %s: %w", userID, channelID, models.ErrForbidden)
	}
	return nil
}

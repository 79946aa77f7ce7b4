package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/team-chat/internal/repo/redis"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
	"golang.org/x/sync/errgroup"
)

type SendMessageParams struct {
	Body      string
	Format    models.MessageFormat
	ReplyToID *models.ObjectID
}

// MessageUsecase serves the message window queries and every mutation
// that changes a channel's live window.
type MessageUsecase interface {
	Latest(ctx context.Context, userID, channelID models.ObjectID, limit int) (models.LiveBatch, error)
	Older(ctx context.Context, userID, channelID models.ObjectID, beforeTime int64, limit int) ([]models.Message, error)
	Context(ctx context.Context, userID, messageID models.ObjectID, size int) (models.MessageContext, error)
	Before(ctx context.Context, userID, messageID models.ObjectID, limit int) ([]models.Message, error)
	After(ctx context.Context, userID, messageID models.ObjectID, limit int) ([]models.Message, error)

	Send(ctx context.Context, userID, channelID models.ObjectID, params SendMessageParams) (*models.Message, error)
	Edit(ctx context.Context, userID, messageID models.ObjectID, body string) (*models.Message, error)
	Delete(ctx context.Context, userID, messageID models.ObjectID) error

	AddReaction(ctx context.Context, userID, messageID models.ObjectID, emoji string) ([]models.ReactionCount, error)
	RemoveReaction(ctx context.Context, userID, messageID models.ObjectID, emoji string) ([]models.ReactionCount, error)
	Reactions(ctx context.Context, userID, messageID models.ObjectID) ([]models.ReactionCount, error)

	MarkRead(ctx context.Context, userID, messageID models.ObjectID) error

	ListBulletins(ctx context.Context, userID, channelID models.ObjectID, limit int) ([]models.Bulletin, error)
	CreateBulletin(ctx context.Context, userID, channelID models.ObjectID, title, body string) (*models.Bulletin, error)
}

type messageUsecase struct {
	access    accessPolicy
	channels  mongodb.ChannelRepository
	messages  mongodb.MessageRepository
	reactions mongodb.ReactionRepository
	receipts  mongodb.ReceiptRepository
	bulletins mongodb.BulletinRepository
	readMarks redis.ReadMarks
	publisher EventPublisher
	sanitizer *bluemonday.Policy
	conf      config.FeedConfig
}

func NewMessageUsecase(
	conf *config.Config,
	channels mongodb.ChannelRepository,
	members mongodb.MemberRepository,
	messages mongodb.MessageRepository,
	reactions mongodb.ReactionRepository,
	receipts mongodb.ReceiptRepository,
	bulletins mongodb.BulletinRepository,
	readMarks redis.ReadMarks,
	publisher EventPublisher,
) MessageUsecase {
	return &messageUsecase{
		access:    accessPolicy{channels: channels, members: members},
		channels:  channels,
		messages:  messages,
		reactions: reactions,
		receipts:  receipts,
		bulletins: bulletins,
		readMarks: readMarks,
		publisher: publisher,
		sanitizer: bluemonday.UGCPolicy(),
		conf:      conf.Feed,
	}
}

func (uc *messageUsecase) Latest(ctx context.Context, userID, channelID models.ObjectID, limit int) (models.LiveBatch, error) {
	if _, err := uc.access.readable(ctx, userID, channelID); err != nil {
		return models.LiveBatch{}, err
	}
	return uc.messages.ListLatest(ctx, channelID, uc.limit(limit, uc.conf.LiveWindowSize))
}

func (uc *messageUsecase) Older(ctx context.Context, userID, channelID models.ObjectID, beforeTime int64, limit int) ([]models.Message, error) {
	if _, err := uc.access.readable(ctx, userID, channelID); err != nil {
		return nil, err
	}
	return uc.messages.ListBefore(ctx, channelID, beforeTime, uc.limit(limit, uc.conf.PageSize))
}

func (uc *messageUsecase) Context(ctx context.Context, userID, messageID models.ObjectID, size int) (models.MessageContext, error) {
	if _, err := uc.readableMessage(ctx, userID, messageID); err != nil {
		return models.MessageContext{}, err
	}
	return uc.messages.Context(ctx, messageID, uc.limit(size, uc.conf.ContextSize))
}

func (uc *messageUsecase) Before(ctx context.Context, userID, messageID models.ObjectID, limit int) ([]models.Message, error) {
	if _, err := uc.readableMessage(ctx, userID, messageID); err != nil {
		return nil, err
	}
	return uc.messages.ListBeforeMessage(ctx, messageID, uc.limit(limit, uc.conf.PageSize))
}

func (uc *messageUsecase) After(ctx context.Context, userID, messageID models.ObjectID, limit int) ([]models.Message, error) {
	if _, err := uc.readableMessage(ctx, userID, messageID); err != nil {
		return nil, err
	}
	return uc.messages.ListAfterMessage(ctx, messageID, uc.limit(limit, uc.conf.PageSize))
}

func (uc *messageUsecase) Send(ctx context.Context, userID, channelID models.ObjectID, params SendMessageParams) (*models.Message, error) {
	if _, err := uc.access.writable(ctx, userID, channelID); err != nil {
		return nil, err
	}
	body, err := uc.cleanBody(params.Format, params.Body)
	if err != nil {
		return nil, err
	}
	if params.ReplyToID != nil {
		parent, err := uc.messages.GetByID(ctx, *params.ReplyToID)
		if err != nil {
			return nil, fmt.Errorf("get reply target %s: %w", *params.ReplyToID, err)
		}
		if parent.ChannelID != channelID {
			return nil, fmt.Errorf("reply target is in another channel: %w", models.ErrInvalidArgument)
		}
	}

	msg := &models.Message{
		ChannelID: channelID,
		AuthorID:  userID,
		Body:      body,
		Format:    params.Format,
		ReplyToID: params.ReplyToID,
	}
	if msg.Format == "" {
		msg.Format = models.FormatText
	}
	if err := uc.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	if err := uc.channels.TouchLastMessage(ctx, channelID, msg.CreatedAt); err != nil {
		log.Warnw(ctx, "failed to touch channel", "channel_id", channelID, "error", err)
	}
	uc.publish(ctx, models.MessageCreated, channelID, msg.ID, userID)
	return msg, nil
}

func (uc *messageUsecase) Edit(ctx context.Context, userID, messageID models.ObjectID, body string) (*models.Message, error) {
	msg, err := uc.ownMessage(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	clean, err := uc.cleanBody(msg.Format, body)
	if err != nil {
		return nil, err
	}
	updated, err := uc.messages.UpdateBody(ctx, messageID, clean)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, models.MessageUpdated, msg.ChannelID, messageID, userID)
	return updated, nil
}

// Delete removes the message for good, with its reactions and receipts.
func (uc *messageUsecase) Delete(ctx context.Context, userID, messageID models.ObjectID) error {
	msg, err := uc.ownMessage(ctx, userID, messageID)
	if err != nil {
		return err
	}
	if err := uc.messages.Delete(ctx, messageID); err != nil {
		return err
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		_, err := uc.reactions.DeleteByMessage(gctx, messageID)
		return err
	})
	group.Go(func() error {
		_, err := uc.receipts.DeleteByMessage(gctx, messageID)
		return err
	})
	if err := group.Wait(); err != nil {
		log.Warnw(ctx, "failed to clean up deleted message", "message_id", messageID, "error", err)
	}

	uc.publish(ctx, models.MessageDeleted, msg.ChannelID, messageID, userID)
	return nil
}

func (uc *messageUsecase) AddReaction(ctx context.Context, userID, messageID models.ObjectID, emoji string) ([]models.ReactionCount, error) {
	msg, err := uc.readableMessage(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	reaction := &models.Reaction{
		MessageID: messageID,
		ChannelID: msg.ChannelID,
		UserID:    userID,
		Emoji:     emoji,
	}
	if err := uc.reactions.Add(ctx, reaction); err != nil {
		return nil, err
	}
	uc.publish(ctx, models.ReactionChanged, msg.ChannelID, messageID, userID)
	return uc.reactions.Counts(ctx, messageID)
}

func (uc *messageUsecase) RemoveReaction(ctx context.Context, userID, messageID models.ObjectID, emoji string) ([]models.ReactionCount, error) {
	msg, err := uc.readableMessage(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if err := uc.reactions.Remove(ctx, messageID, userID, emoji); err != nil {
		return nil, err
	}
	uc.publish(ctx, models.ReactionChanged, msg.ChannelID, messageID, userID)
	return uc.reactions.Counts(ctx, messageID)
}

func (uc *messageUsecase) Reactions(ctx context.Context, userID, messageID models.ObjectID) ([]models.ReactionCount, error) {
	if _, err := uc.readableMessage(ctx, userID, messageID); err != nil {
		return nil, err
	}
	return uc.reactions.Counts(ctx, messageID)
}

// MarkRead is idempotent. The redis claim only saves the receipt write.
func (uc *messageUsecase) MarkRead(ctx context.Context, userID, messageID models.ObjectID) error {
	msg, err := uc.readableMessage(ctx, userID, messageID)
	if err != nil {
		return err
	}

	claimed, err := uc.readMarks.Claim(ctx, userID, messageID)
	if err != nil {
		log.Warnw(ctx, "read mark cache unavailable", "error", err)
		claimed = true
	}
	if !claimed {
		return nil
	}
	if _, err := uc.receipts.Mark(ctx, messageID, userID, msg.ChannelID); err != nil {
		if rerr := uc.readMarks.Release(ctx, userID, messageID); rerr != nil {
			log.Warnw(ctx, "failed to release read mark", "error", rerr)
		}
		return err
	}
	return nil
}

func (uc *messageUsecase) ListBulletins(ctx context.Context, userID, channelID models.ObjectID, limit int) ([]models.Bulletin, error) {
	if _, err := uc.access.readable(ctx, userID, channelID); err != nil {
		return nil, err
	}
	return uc.bulletins.ListByChannel(ctx, channelID, uc.limit(limit, uc.conf.PageSize))
}

func (uc *messageUsecase) CreateBulletin(ctx context.Context, userID, channelID models.ObjectID, title, body string) (*models.Bulletin, error) {
	if _, err := uc.access.writable(ctx, userID, channelID); err != nil {
		return nil, err
	}
	bulletin := &models.Bulletin{
		ChannelID: channelID,
		AuthorID:  userID,
		Title:     strings.TrimSpace(uc.sanitizer.Sanitize(title)),
		Body:      strings.TrimSpace(uc.sanitizer.Sanitize(body)),
	}
	if bulletin.Title == "" {
		return nil, fmt.Errorf("bulletin title is empty: %w", models.ErrInvalidArgument)
	}
	if err := uc.bulletins.Create(ctx, bulletin); err != nil {
		return nil, err
	}
	return bulletin, nil
}

func (uc *messageUsecase) readableMessage(ctx context.Context, userID, messageID models.ObjectID) (*models.Message, error) {
	msg, err := uc.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", messageID, err)
	}
	if _, err := uc.access.readable(ctx, userID, msg.ChannelID); err != nil {
		return nil, err
	}
	return msg, nil
}

func (uc *messageUsecase) ownMessage(ctx context.Context, userID, messageID models.ObjectID) (*models.Message, error) {
	msg, err := uc.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", messageID, err)
	}
	if msg.AuthorID != userID {
		return nil, fmt.Errorf("message %s belongs to another user: %w", messageID, models.ErrForbidden)
	}
	return msg, nil
}

func (uc *messageUsecase) cleanBody(format models.MessageFormat, body string) (string, error) {
	if format == models.FormatImage {
		body = strings.TrimSpace(body)
		if !strings.HasPrefix(body, "https://") && !strings.HasPrefix(body, "http://") {
			return "", fmt.Errorf("image message needs an http url: %w", models.ErrInvalidArgument)
		}
		return body, nil
	}
	clean := strings.TrimSpace(uc.sanitizer.Sanitize(body))
	if clean == "" {
		return "", fmt.Errorf("message body is empty: %w", models.ErrInvalidArgument)
	}
	return clean, nil
}

// publish never fails the mutation; subscribers catch up on the next change.
func (uc *messageUsecase) publish(ctx context.Context, typ models.MessageEventType, channelID, messageID, userID models.ObjectID) {
	event := models.MessageEvent{
		Type:      typ,
		ChannelID: channelID,
		MessageID: messageID,
		UserID:    userID,
		At:        time.Now().UnixMicro(),
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		log.Errorw(ctx, "failed to publish message event", "type", typ, "channel_id", channelID, "error", err)
	}
}

func (uc *messageUsecase) limit(requested, fallback int) int {
	if requested <= 0 {
		return fallback
	}
	return min(requested, 100)
}

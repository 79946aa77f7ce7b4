package mongodb

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id models.ObjectID) (*models.Message, error)
	// ListLatest returns the live window of a channel in ascending order,
	// with the creation time range it is authoritative for.
	ListLatest(ctx context.Context, channelID models.ObjectID, limit int) (models.LiveBatch, error)
	ListBefore(ctx context.Context, channelID models.ObjectID, beforeTime int64, limit int) ([]models.Message, error)
	ListBeforeMessage(ctx context.Context, id models.ObjectID, limit int) ([]models.Message, error)
	ListAfterMessage(ctx context.Context, id models.ObjectID, limit int) ([]models.Message, error)
	Context(ctx context.Context, id models.ObjectID, size int) (models.MessageContext, error)
	UpdateBody(ctx context.Context, id models.ObjectID, body string) (*models.Message, error)
	Delete(ctx context.Context, id models.ObjectID) error
}

type messageRepo struct {
	baseRepo[models.Message]
	clock *creationClock
}

func NewMessageRepository(db *DB) MessageRepository {
	repo := &messageRepo{
		baseRepo: newBaseRepo[models.Message](db.Database),
		clock:    newCreationClock(time.Now),
	}

	go repo.createIndexes(context.Background())

	return repo
}

func (r *messageRepo) createIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			// creation_time is the pagination cursor, so it must not repeat
			// within a channel even across nodes
			Keys:    bson.D{{Key: "channel_id", Value: 1}, {Key: "creation_time", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("channel_creation_time_unique"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Errorw(ctx, "failed to create message indexes", "error", err)
	}
}

const maxStampAttempts = 5

func (r *messageRepo) Create(ctx context.Context, msg *models.Message) error {
	now := time.Now()
	msg.ID = ""
	msg.CreatedAt = now
	msg.UpdatedAt = now

	id, err := stampUnique(r.clock, msg, func(m models.Message) (models.ObjectID, error) {
		return r.Insert(ctx, m)
	})
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	msg.ID = id
	return nil
}

// stampUnique gives msg a fresh creation time for every insert attempt. The
// unique channel/creation_time index rejects a time another node already
// used in the channel, and the next tick is tried.
func stampUnique(clock *creationClock, msg *models.Message, insert func(models.Message) (models.ObjectID, error)) (models.ObjectID, error) {
	var err error
	for range maxStampAttempts {
		msg.CreationTime = clock.Next()
		var id models.ObjectID
		if id, err = insert(*msg); !errors.Is(err, models.ErrConflict) {
			return id, err
		}
	}
	return "", err
}

func (r *messageRepo) GetByID(ctx context.Context, id models.ObjectID) (*models.Message, error) {
	return r.FindByID(ctx, id)
}

func (r *messageRepo) ListLatest(ctx context.Context, channelID models.ObjectID, limit int) (models.LiveBatch, error) {
	msgs, err := r.listDesc(ctx, bson.M{"channel_id": channelID}, limit)
	if err != nil {
		return models.LiveBatch{}, fmt.Errorf("failed to list latest messages: %w", err)
	}
	return models.LiveBatch{
		ChannelID: channelID,
		Messages:  msgs,
		Range:     liveRange(msgs, limit),
	}, nil
}

func (r *messageRepo) ListBefore(ctx context.Context, channelID models.ObjectID, beforeTime int64, limit int) ([]models.Message, error) {
	filter := bson.M{
		"channel_id":    channelID,
		"creation_time": bson.M{"$lt": beforeTime},
	}
	msgs, err := r.listDesc(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list older messages: %w", err)
	}
	return msgs, nil
}

func (r *messageRepo) ListBeforeMessage(ctx context.Context, id models.ObjectID, limit int) ([]models.Message, error) {
	pivot, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.ListBefore(ctx, pivot.ChannelID, pivot.CreationTime, limit)
}

func (r *messageRepo) ListAfterMessage(ctx context.Context, id models.ObjectID, limit int) ([]models.Message, error) {
	pivot, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.listAfter(ctx, pivot.ChannelID, pivot.CreationTime, limit)
}

func (r *messageRepo) Context(ctx context.Context, id models.ObjectID, size int) (models.MessageContext, error) {
	target, err := r.FindByID(ctx, id)
	if err != nil {
		return models.MessageContext{}, err
	}

	var before, after []models.Message
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		before, err = r.ListBefore(gctx, target.ChannelID, target.CreationTime, size)
		return err
	})
	group.Go(func() error {
		var err error
		after, err = r.listAfter(gctx, target.ChannelID, target.CreationTime, size)
		return err
	})
	if err := group.Wait(); err != nil {
		return models.MessageContext{}, fmt.Errorf("failed to load message context: %w", err)
	}

	msgs := make([]models.Message, 0, len(before)+1+len(after))
	msgs = append(msgs, before...)
	msgs = append(msgs, *target)
	msgs = append(msgs, after...)
	return models.MessageContext{Messages: msgs, TargetIndex: len(before)}, nil
}

func (r *messageRepo) UpdateBody(ctx context.Context, id models.ObjectID, body string) (*models.Message, error) {
	return r.UpdateOne(ctx, bson.M{"_id": id}, models.Message{Body: body, Edited: true})
}

func (r *messageRepo) Delete(ctx context.Context, id models.ObjectID) error {
	return r.DeleteOne(ctx, bson.M{"_id": id})
}

// listDesc takes the newest limit messages matching filter and returns them
// oldest first.
func (r *messageRepo) listDesc(ctx context.Context, filter bson.M, limit int) ([]models.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "creation_time", Value: -1}}).
		SetLimit(int64(limit))
	msgs, err := r.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

func (r *messageRepo) listAfter(ctx context.Context, channelID models.ObjectID, afterTime int64, limit int) ([]models.Message, error) {
	filter := bson.M{
		"channel_id":    channelID,
		"creation_time": bson.M{"$gt": afterTime},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "creation_time", Value: 1}}).
		SetLimit(int64(limit))
	msgs, err := r.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list newer messages: %w", err)
	}
	return msgs, nil
}

// liveRange is open towards newer messages. A window shorter than the limit
// holds the whole history, so it is authoritative from the beginning.
func liveRange(window []models.Message, limit int) models.LiveRange {
	if len(window) < limit || len(window) == 0 {
		return models.LiveRange{}
	}
	return models.LiveRange{From: window[0].CreationTime}
}

// creationClock hands out strictly increasing microsecond timestamps.
type creationClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func newCreationClock(now func() time.Time) *creationClock {
	return &creationClock{now: now}
}

func (c *creationClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UnixMicro()
	if t <= c.last {
		t = c.last + 1
	}
	c.last = t
	return t
}

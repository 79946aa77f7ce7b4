package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id models.ObjectID) (*models.Channel, error)
	GetByDMKey(ctx context.Context, dmKey string) (*models.Channel, error)
	ListByIDs(ctx context.Context, ids []models.ObjectID) ([]models.Channel, error)
	TouchLastMessage(ctx context.Context, id models.ObjectID, at time.Time) error
}

type channelRepo struct {
	baseRepo[models.Channel]
}

func NewChannelRepository(db *DB) ChannelRepository {
	repo := &channelRepo{
		baseRepo: newBaseRepo[models.Channel](db.Database),
	}

	go repo.createIndexes(context.Background())

	return repo
}

func (r *channelRepo) createIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "dm_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"dm_key": bson.M{"$exists": true}}).
				SetName("dm_key_unique"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Errorw(ctx, "failed to create channel indexes", "error", err)
	}
}

func (r *channelRepo) Create(ctx context.Context, channel *models.Channel) error {
	now := time.Now()
	channel.ID = ""
	channel.CreatedAt = now
	channel.UpdatedAt = now

	id, err := r.Insert(ctx, *channel)
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	channel.ID = id
	return nil
}

func (r *channelRepo) GetByID(ctx context.Context, id models.ObjectID) (*models.Channel, error) {
	return r.FindByID(ctx, id)
}

func (r *channelRepo) GetByDMKey(ctx context.Context, dmKey string) (*models.Channel, error) {
	return r.FindOne(ctx, bson.M{"dm_key": dmKey})
}

// ListByIDs returns the channels with the most recent activity first.
func (r *channelRepo) ListByIDs(ctx context.Context, ids []models.ObjectID) ([]models.Channel, error) {
	if len(ids) == 0 {
		return []models.Channel{}, nil
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "last_message_at", Value: -1},
		{Key: "created_at", Value: -1},
	})
	channels, err := r.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return channels, nil
}

func (r *channelRepo) TouchLastMessage(ctx context.Context, id models.ObjectID, at time.Time) error {
	_, err := r.UpdateOne(ctx, bson.M{"_id": id}, models.Channel{LastMessageAt: &at})
	return err
}

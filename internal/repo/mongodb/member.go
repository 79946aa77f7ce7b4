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

type MemberRepository interface {
	Add(ctx context.Context, channelID, userID models.ObjectID, role string) (*models.ChannelMember, error)
	Remove(ctx context.Context, channelID, userID models.ObjectID) error
	IsMember(ctx context.Context, channelID, userID models.ObjectID) (bool, error)
	ListByChannel(ctx context.Context, channelID models.ObjectID) ([]models.ChannelMember, error)
	ListChannelIDs(ctx context.Context, userID models.ObjectID) ([]models.ObjectID, error)
}

type memberRepo struct {
	baseRepo[models.ChannelMember]
}

func NewMemberRepository(db *DB) MemberRepository {
	repo := &memberRepo{
		baseRepo: newBaseRepo[models.ChannelMember](db.Database),
	}

	go repo.createIndexes(context.Background())

	return repo
}

func (r *memberRepo) createIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "channel_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("channel_user_unique"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_id"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Errorw(ctx, "failed to create channel member indexes", "error", err)
	}
}

// Add is idempotent. An existing membership keeps its role and join time.
func (r *memberRepo) Add(ctx context.Context, channelID, userID models.ObjectID, role string) (*models.ChannelMember, error) {
	filter := bson.M{"channel_id": channelID, "user_id": userID}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var member models.ChannelMember
	err := r.coll.FindOneAndUpdate(ctx, filter, memberUpsert(role, time.Now()), opts).Decode(&member)
	if err != nil {
		return nil, r.wrap("add", err)
	}
	return &member, nil
}

// memberUpsert only writes on insert.
func memberUpsert(role string, now time.Time) bson.M {
	return bson.M{"$setOnInsert": bson.M{"role": role, "joined_at": now}}
}

func (r *memberRepo) Remove(ctx context.Context, channelID, userID models.ObjectID) error {
	return r.DeleteOne(ctx, bson.M{"channel_id": channelID, "user_id": userID})
}

func (r *memberRepo) IsMember(ctx context.Context, channelID, userID models.ObjectID) (bool, error) {
	n, err := r.Count(ctx, bson.M{"channel_id": channelID, "user_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return n > 0, nil
}

func (r *memberRepo) ListByChannel(ctx context.Context, channelID models.ObjectID) ([]models.ChannelMember, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}})
	return r.Find(ctx, bson.M{"channel_id": channelID}, opts)
}

func (r *memberRepo) ListChannelIDs(ctx context.Context, userID models.ObjectID) ([]models.ObjectID, error) {
	members, err := r.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	ids := make([]models.ObjectID, len(members))
	for i, m := range members {
		ids[i] = m.ChannelID
	}
	return ids, nil
}

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

type ReactionRepository interface {
	Add(ctx context.Context, reaction *models.Reaction) error
	Remove(ctx context.Context, messageID, userID models.ObjectID, emoji string) error
	Counts(ctx context.Context, messageID models.ObjectID) ([]models.ReactionCount, error)
	DeleteByMessage(ctx context.Context, messageID models.ObjectID) (int64, error)
}

type reactionRepo struct {
	baseRepo[models.Reaction]
}

func NewReactionRepository(db *DB) ReactionRepository {
	repo := &reactionRepo{
		baseRepo: newBaseRepo[models.Reaction](db.Database),
	}

	go repo.createIndexes(context.Background())

	return repo
}

func (r *reactionRepo) createIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "message_id", Value: 1},
				{Key: "user_id", Value: 1},
				{Key: "emoji", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("message_user_emoji_unique"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Errorw(ctx, "failed to create reaction indexes", "error", err)
	}
}

// Add returns models.ErrConflict when the user already reacted with emoji.
func (r *reactionRepo) Add(ctx context.Context, reaction *models.Reaction) error {
	reaction.ID = ""
	reaction.CreatedAt = time.Now()
	id, err := r.Insert(ctx, *reaction)
	if err != nil {
		return fmt.Errorf("failed to add reaction: %w", err)
	}
	reaction.ID = id
	return nil
}

func (r *reactionRepo) Remove(ctx context.Context, messageID, userID models.ObjectID, emoji string) error {
	return r.DeleteOne(ctx, bson.M{
		"message_id": messageID,
		"user_id":    userID,
		"emoji":      emoji,
	})
}

func (r *reactionRepo) Counts(ctx context.Context, messageID models.ObjectID) ([]models.ReactionCount, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"message_id": messageID}},
		{"$sort": bson.M{"created_at": 1}},
		{"$group": bson.M{
			"_id":      "$emoji",
			"count":    bson.M{"$sum": 1},
			"user_ids": bson.M{"$push": "$user_id"},
			"first":    bson.M{"$min": "$created_at"},
		}},
		{"$sort": bson.M{"first": 1}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reactions: %w", err)
	}
	defer cursor.Close(ctx)

	counts := []models.ReactionCount{}
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode reactions: %w", err)
	}
	return counts, nil
}

func (r *reactionRepo) DeleteByMessage(ctx context.Context, messageID models.ObjectID) (int64, error) {
	return r.DeleteMany(ctx, bson.M{"message_id": messageID})
}

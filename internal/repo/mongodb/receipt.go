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

type ReceiptRepository interface {
	Mark(ctx context.Context, messageID, userID, channelID models.ObjectID) (*models.ReadReceipt, error)
	CountByMessage(ctx context.Context, messageID models.ObjectID) (int64, error)
	DeleteByMessage(ctx context.Context, messageID models.ObjectID) (int64, error)
}

type receiptRepo struct {
	baseRepo[models.ReadReceipt]
}

func NewReceiptRepository(db *DB) ReceiptRepository {
	repo := &receiptRepo{
		baseRepo: newBaseRepo[models.ReadReceipt](db.Database),
	}

	go repo.createIndexes(context.Background())

	return repo
}

func (r *receiptRepo) createIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "message_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("message_user_unique"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Errorw(ctx, "failed to create read receipt indexes", "error", err)
	}
}

// Mark upserts the receipt, so marking twice only moves read_at.
func (r *receiptRepo) Mark(ctx context.Context, messageID, userID, channelID models.ObjectID) (*models.ReadReceipt, error) {
	filter := bson.M{"message_id": messageID, "user_id": userID}
	receipt, err := r.UpsertOne(ctx, filter, models.ReadReceipt{ReadAt: time.Now()}, UpsertOpts{
		SetOnInsert: bson.M{"channel_id": channelID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark message as read: %w", err)
	}
	return receipt, nil
}

func (r *receiptRepo) CountByMessage(ctx context.Context, messageID models.ObjectID) (int64, error) {
	return r.Count(ctx, bson.M{"message_id": messageID})
}

func (r *receiptRepo) DeleteByMessage(ctx context.Context, messageID models.ObjectID) (int64, error) {
	return r.DeleteMany(ctx, bson.M{"message_id": messageID})
}

package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BulletinRepository interface {
	Create(ctx context.Context, bulletin *models.Bulletin) error
	ListByChannel(ctx context.Context, channelID models.ObjectID, limit int) ([]models.Bulletin, error)
}

type bulletinRepo struct {
	baseRepo[models.Bulletin]
}

func NewBulletinRepository(db *DB) BulletinRepository {
	return &bulletinRepo{
		baseRepo: newBaseRepo[models.Bulletin](db.Database),
	}
}

func (r *bulletinRepo) Create(ctx context.Context, bulletin *models.Bulletin) error {
	bulletin.ID = ""
	bulletin.CreatedAt = time.Now()
	id, err := r.Insert(ctx, *bulletin)
	if err != nil {
		return fmt.Errorf("failed to create bulletin: %w", err)
	}
	bulletin.ID = id
	return nil
}

func (r *bulletinRepo) ListByChannel(ctx context.Context, channelID models.ObjectID, limit int) ([]models.Bulletin, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	return r.Find(ctx, bson.M{"channel_id": channelID}, opts)
}

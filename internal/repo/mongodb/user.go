package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository interface {
	GetByID(ctx context.Context, id models.ObjectID) (*models.User, error)
	// Upsert keeps the local copy of an identity provider user.
	Upsert(ctx context.Context, user models.User) (*models.User, error)
	Search(ctx context.Context, query string, limit, offset int) (*PaginateWithTotal[models.User], error)
}

type userRepo struct {
	baseRepo[models.User]
}

func NewUserRepository(db *DB) UserRepository {
	repo := &userRepo{
		baseRepo: newBaseRepo[models.User](db.Database),
	}

	go repo.createIndexes(context.Background())

	return repo
}

func (r *userRepo) createIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Errorw(ctx, "failed to create user indexes", "error", err)
	}
}

func (r *userRepo) GetByID(ctx context.Context, id models.ObjectID) (*models.User, error) {
	return r.FindByID(ctx, id)
}

func (r *userRepo) Upsert(ctx context.Context, user models.User) (*models.User, error) {
	if !user.ID.IsValid() {
		return nil, fmt.Errorf("user id %q: %w", user.ID, models.ErrInvalidArgument)
	}
	user.IsActive = true
	saved, err := r.UpsertOne(ctx, bson.M{"_id": user.ID}, user, UpsertOpts{
		SetOnInsert: bson.M{"created_at": time.Now()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return saved, nil
}

// Search matches active users by name or email prefix, case insensitive.
func (r *userRepo) Search(ctx context.Context, query string, limit, offset int) (*PaginateWithTotal[models.User], error) {
	filter := bson.M{"is_active": true}
	if query != "" {
		pattern := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
		}
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	page, err := r.PaginateWithTotal(ctx, filter, int64(limit), int64(offset), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return page, nil
}

// Package redis holds the short lived state kept outside the document store.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	goredis "github.com/redis/go-redis/v9"
)

func NewClient(ctx context.Context, conf config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	return client, nil
}

// ReadMarks remembers which messages a user already marked read, so repeated
// marks skip the receipt write.
type ReadMarks interface {
	// Claim reports whether the mark is new. A nil client claims everything.
	Claim(ctx context.Context, userID, messageID models.ObjectID) (bool, error)
	// Release forgets a claim whose receipt write failed.
	Release(ctx context.Context, userID, messageID models.ObjectID) error
}

type readMarks struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewReadMarks(client *goredis.Client, conf config.RedisConfig) ReadMarks {
	return &readMarks{client: client, ttl: conf.ReadMarkTTL}
}

func (r *readMarks) Claim(ctx context.Context, userID, messageID models.ObjectID) (bool, error) {
	if r.client == nil {
		return true, nil
	}
	ok, err := r.client.SetNX(ctx, readMarkKey(userID, messageID), "1", r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim read mark: %w", err)
	}
	return ok, nil
}

func (r *readMarks) Release(ctx context.Context, userID, messageID models.ObjectID) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, readMarkKey(userID, messageID)).Err(); err != nil {
		return fmt.Errorf("release read mark: %w", err)
	}
	return nil
}

func readMarkKey(userID, messageID models.ObjectID) string {
	return "read:" + string(userID) + ":" + string(messageID)
}

package app

import (
	"context"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/kafka"
	"github.com/nguyentranbao-ct/team-chat/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/team-chat/internal/repo/redis"
	"github.com/nguyentranbao-ct/team-chat/internal/usecase"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const connectTimeout = 10 * time.Second

func newMongoDB(lc fx.Lifecycle, cfg *config.Config) (*mongodb.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	db, err := mongodb.NewConnection(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: db.Close,
	})
	return db, nil
}

// newRedisClient returns a nil client when redis is disabled; read marks
// then always write the receipt.
func newRedisClient(lc fx.Lifecycle, cfg *config.Config) (*goredis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	client, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newReadMarks(client *goredis.Client, cfg *config.Config) redis.ReadMarks {
	return redis.NewReadMarks(client, cfg.Redis)
}

func newLiveHub(messages mongodb.MessageRepository, cfg *config.Config) usecase.LiveHub {
	return usecase.NewLiveHub(messages, cfg)
}

// newEventPublisher sends message events through kafka when enabled, so
// every node's hub hears them; otherwise straight to the local hub.
func newEventPublisher(lc fx.Lifecycle, cfg *config.Config, hub usecase.LiveHub) (usecase.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return hub, nil
	}
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return producer.Close()
		},
	})
	return producer, nil
}

// StartConsumer joins the kafka fan-out when enabled.
func StartConsumer(lc fx.Lifecycle, cfg *config.Config, hub usecase.LiveHub) error {
	consumer, err := kafka.NewConsumer(cfg.Kafka, hub)
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return consumer.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			if err := consumer.Stop(ctx); err != nil {
				log.Warnw(ctx, "stop kafka consumer", "error", err)
			}
			return nil
		},
	})
	return nil
}

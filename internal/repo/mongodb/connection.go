package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DB is the connected client and the team chat database.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewConnection connects and waits for the primary to answer, so a wrong
// address fails at startup instead of on the first request.
func NewConnection(ctx context.Context, conf config.DatabaseConfig) (*DB, error) {
	client, err := mongo.Connect(ctx, clientOptions(conf))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb %v: %w", conf.Hosts, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping mongodb %v: %w", conf.Hosts, err)
	}
	return &DB{Client: client, Database: client.Database(conf.Database)}, nil
}

func clientOptions(conf config.DatabaseConfig) *options.ClientOptions {
	opts := options.Client().
		SetAppName("team-chat").
		SetHosts(conf.Hosts).
		SetDirect(conf.Direct).
		SetMaxPoolSize(50).
		SetMaxConnIdleTime(time.Minute).
		SetServerSelectionTimeout(5 * time.Second).
		SetTimeout(10 * time.Second)
	if conf.Username != "" || conf.Password != "" {
		opts.SetAuth(options.Credential{
			AuthSource: conf.AuthDB,
			Username:   conf.Username,
			Password:   conf.Password,
		})
	}
	return opts
}

func (db *DB) Close(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}

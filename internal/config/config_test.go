package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFeedConfig(t *testing.T) {
	t.Setenv("FEED_PAGE_SIZE", "99")
	conf := DefaultFeedConfig()

	assert.Equal(t, 20, conf.PageSize)
	assert.Equal(t, 15, conf.ContextSize)
	assert.Equal(t, 50, conf.LiveWindowSize)
	assert.Equal(t, 100.0, conf.EdgeThreshold)
	assert.Equal(t, 100.0, conf.NearBottom)
	assert.Equal(t, 50.0, conf.AutoScrollDistance)
	assert.Equal(t, time.Second, conf.Cooldown)
	assert.Equal(t, 3*time.Second, conf.FailurePenalty)
	assert.Equal(t, 100*time.Millisecond, conf.RestoreSettle)
	assert.Equal(t, 0.5, conf.ReadThreshold)
}

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_HOSTS", "mongo-1:27017,mongo-2:27017")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("FEED_PAGE_SIZE", "30")
	t.Setenv("FEED_COOLDOWN", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"mongo-1:27017", "mongo-2:27017"}, cfg.Database.Hosts)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, "team-chat", cfg.Kafka.GroupID)
	assert.Equal(t, 30, cfg.Feed.PageSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Feed.Cooldown)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("FEED_COOLDOWN", "soon")
	_, err := Load()
	assert.Error(t, err)
}

package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Log      LogConfig      `envPrefix:"LOG_"`
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	Feed     FeedConfig     `envPrefix:"FEED_"`
	Client   ClientConfig   `envPrefix:"CLIENT_"`
}

type LogConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

type ServerConfig struct {
	Addr          string `env:"ADDR" envDefault:":8080"`
	EnablePprof   bool   `env:"ENABLE_PPROF" envDefault:"false"`
	CORSPattern   string `env:"CORS_PATTERN" envDefault:"^https?://localhost(:[0-9]+)?$"`
	MaxBodyLength int    `env:"MAX_BODY_LENGTH" envDefault:"4000"`
}

type DatabaseConfig struct {
	Hosts    []string `env:"HOSTS" envSeparator:"," envDefault:"localhost:27017"`
	Direct   bool     `env:"DIRECT" envDefault:"true"`
	Username string   `env:"USERNAME"`
	Password string   `env:"PASSWORD"`
	AuthDB   string   `env:"AUTH_DB" envDefault:"admin"`
	Database string   `env:"DATABASE" envDefault:"team_chat"`
}

type RedisConfig struct {
	Enabled     bool          `env:"ENABLED" envDefault:"false"`
	Addr        string        `env:"ADDR" envDefault:"localhost:6379"`
	Password    string        `env:"PASSWORD"`
	DB          int           `env:"DB" envDefault:"0"`
	ReadMarkTTL time.Duration `env:"READ_MARK_TTL" envDefault:"24h"`
}

type KafkaConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"team-chat.message-events"`
	GroupID string   `env:"GROUP_ID"`
}

type AuthConfig struct {
	// HS256 secret shared with the identity provider.
	Secret string `env:"SECRET" envDefault:"local-dev-secret"`
	Issuer string `env:"ISSUER"`
}

// FeedConfig holds the pagination and scroll policy of the message feeds.
type FeedConfig struct {
	PageSize           int           `env:"PAGE_SIZE" envDefault:"20"`
	ContextSize        int           `env:"CONTEXT_SIZE" envDefault:"15"`
	LiveWindowSize     int           `env:"LIVE_WINDOW_SIZE" envDefault:"50"`
	EdgeThreshold      float64       `env:"EDGE_THRESHOLD_PX" envDefault:"100"`
	NearBottom         float64       `env:"NEAR_BOTTOM_PX" envDefault:"100"`
	AutoScrollDistance float64       `env:"AUTO_SCROLL_PX" envDefault:"50"`
	Cooldown           time.Duration `env:"COOLDOWN" envDefault:"1s"`
	FailurePenalty     time.Duration `env:"FAILURE_PENALTY" envDefault:"3s"`
	RestoreSettle      time.Duration `env:"RESTORE_SETTLE" envDefault:"100ms"`
	ScrollThrottle     time.Duration `env:"SCROLL_THROTTLE" envDefault:"16ms"`
	ReadThreshold      float64       `env:"READ_THRESHOLD" envDefault:"0.5"`
	FetchTimeout       time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
}

// ClientConfig is used by the terminal client talking to a running server.
type ClientConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	Token   string        `env:"TOKEN"`
	UserID  string        `env:"USER_ID"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

func DefaultFeedConfig() FeedConfig {
	var conf FeedConfig
	if err := env.ParseWithOptions(&conf, env.Options{Environment: map[string]string{}}); err != nil {
		panic(err)
	}
	return conf
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "team-chat"
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

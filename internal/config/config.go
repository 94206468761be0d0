package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Resolution dataset backends
const (
	ResolutionSourceFile     = "file"
	ResolutionSourcePostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	// API server configuration
	API APIConfig

	// Subgraph holding the fan token portfolios
	Subgraph SubgraphConfig

	// Social graph API configuration
	Airstack AirstackConfig

	// Token price API configuration
	Price PriceConfig

	// Farcaster hub used to validate frame messages
	Farcaster FarcasterConfig

	// Resolution table configuration
	Resolution ResolutionConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Cache TTLs
	Cache CacheConfig

	// Frame rendering configuration
	Frame FrameConfig

	// Logging configuration
	Log LogConfig
}

// APIConfig holds API server settings
type APIConfig struct {
	Host            string        `envconfig:"API_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"API_PORT" default:"3000"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimitRPS    int           `envconfig:"API_RATE_LIMIT_RPS" default:"100"`

	// Public base URL of the deployment, with trailing slash
	AppURL string `envconfig:"APP_URL" default:"http://localhost:3000/"`
}

// SubgraphConfig holds subgraph connection settings
type SubgraphConfig struct {
	URL            string        `envconfig:"SUBGRAPH_URL" default:"https://api.studio.thegraph.com/query/23537/moxie_protocol_stats_mainnet/version/latest"`
	PageSize       int           `envconfig:"SUBGRAPH_PAGE_SIZE" default:"1000"`
	RequestTimeout time.Duration `envconfig:"SUBGRAPH_REQUEST_TIMEOUT" default:"15s"`
}

// AirstackConfig holds social graph API settings
type AirstackConfig struct {
	URL            string        `envconfig:"AIRSTACK_URL" default:"https://api.airstack.xyz/gql"`
	APIKey         string        `envconfig:"AIRSTACK_API_KEY"`
	RequestTimeout time.Duration `envconfig:"AIRSTACK_REQUEST_TIMEOUT" default:"10s"`
	RateLimitRPS   float64       `envconfig:"AIRSTACK_RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int           `envconfig:"AIRSTACK_RATE_LIMIT_BURST" default:"8"`
}

// PriceConfig holds price API settings
type PriceConfig struct {
	URL            string        `envconfig:"PRICE_API_URL" default:"https://api.coingecko.com/api/v3"`
	AssetID        string        `envconfig:"PRICE_ASSET_ID" default:"moxie"`
	Currency       string        `envconfig:"PRICE_CURRENCY" default:"usd"`
	RequestTimeout time.Duration `envconfig:"PRICE_REQUEST_TIMEOUT" default:"10s"`
}

// FarcasterConfig holds hub settings for frame message validation.
// An empty HubURL disables validation and trusts the untrusted payload.
type FarcasterConfig struct {
	HubURL         string        `envconfig:"FARCASTER_HUB_URL"`
	HubAPIKey      string        `envconfig:"FARCASTER_HUB_API_KEY"`
	RequestTimeout time.Duration `envconfig:"FARCASTER_REQUEST_TIMEOUT" default:"5s"`
}

// ResolutionConfig holds resolution table settings
type ResolutionConfig struct {
	Source string `envconfig:"RESOLUTION_SOURCE" default:"file"`
	File   string `envconfig:"RESOLUTION_FILE" default:"data/resolve.json"`

	// Reload the dataset on every request instead of once per process
	Reload bool `envconfig:"RESOLUTION_RELOAD" default:"true"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	Port            int           `envconfig:"DB_PORT" default:"5432"`
	User            string        `envconfig:"DB_USER" default:"frame"`
	Password        string        `envconfig:"DB_PASSWORD" default:"frame"`
	Name            string        `envconfig:"DB_NAME" default:"top_holders"`
	SSLMode         string        `envconfig:"DB_SSL_MODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// CacheConfig holds per-resource cache TTLs
type CacheConfig struct {
	DefaultTTL time.Duration `envconfig:"CACHE_DEFAULT_TTL" default:"30s"`
	HoldersTTL time.Duration `envconfig:"CACHE_HOLDERS_TTL" default:"2m"`
	ProfileTTL time.Duration `envconfig:"CACHE_PROFILE_TTL" default:"10m"`
	PriceTTL   time.Duration `envconfig:"CACHE_PRICE_TTL" default:"1m"`
}

// FrameConfig holds frame rendering settings
type FrameConfig struct {
	Author            string        `envconfig:"FRAME_AUTHOR" default:"chanzy10"`
	ComposeURL        string        `envconfig:"FRAME_COMPOSE_URL" default:"https://warpcast.com/~/compose"`
	Title             string        `envconfig:"FRAME_TITLE" default:"Top Holders Frame"`
	Description       string        `envconfig:"FRAME_DESCRIPTION" default:"Check the top holders of your fan token."`
	ImageSize         int           `envconfig:"FRAME_IMAGE_SIZE" default:"1080"`
	PublicDir         string        `envconfig:"PUBLIC_DIR" default:"public"`
	EnrichConcurrency int           `envconfig:"ENRICH_CONCURRENCY" default:"8"`
	AvatarTimeout     time.Duration `envconfig:"AVATAR_REQUEST_TIMEOUT" default:"5s"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	switch c.Resolution.Source {
	case ResolutionSourceFile:
		if c.Resolution.File == "" {
			return fmt.Errorf("RESOLUTION_FILE is required when RESOLUTION_SOURCE=file")
		}
	case ResolutionSourcePostgres:
	default:
		return fmt.Errorf("unknown RESOLUTION_SOURCE %q", c.Resolution.Source)
	}
	if c.Subgraph.URL == "" {
		return fmt.Errorf("SUBGRAPH_URL is required")
	}
	if c.Subgraph.PageSize <= 0 {
		return fmt.Errorf("SUBGRAPH_PAGE_SIZE must be positive, got %d", c.Subgraph.PageSize)
	}
	if c.Frame.ImageSize <= 0 {
		return fmt.Errorf("FRAME_IMAGE_SIZE must be positive, got %d", c.Frame.ImageSize)
	}
	if c.Frame.EnrichConcurrency <= 0 {
		return fmt.Errorf("ENRICH_CONCURRENCY must be positive, got %d", c.Frame.EnrichConcurrency)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Vision      VisionConfig      `mapstructure:"vision"`
	Moderation  ModerationConfig  `mapstructure:"moderation"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Qdrant      QdrantConfig      `mapstructure:"qdrant"`
	Presence    PresenceConfig    `mapstructure:"presence"`
	Archive     ArchiveConfig     `mapstructure:"archive"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
}

type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	Mode           string     `mapstructure:"mode"`
	BodyLimitBytes int64      `mapstructure:"body_limit_bytes"`
	CORS           CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite or postgres
	Path            string        `mapstructure:"path"`
	URL             string        `mapstructure:"url"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

// DSN returns the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.URL
	}
	if c.Path == "" {
		return "file::memory:?cache=shared"
	}
	return c.Path + "?_busy_timeout=5000"
}

type VisionConfig struct {
	Provider      string        `mapstructure:"provider"` // rekognition or openai
	Region        string        `mapstructure:"region"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Model         string        `mapstructure:"model"`
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	MaxLabels     int           `mapstructure:"max_labels"`
	MinConfidence float64       `mapstructure:"min_confidence"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type ModerationConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence"`
	// FailOpen treats a moderation adapter failure as "appropriate".
	FailOpen bool `mapstructure:"fail_open"`
}

type ScoringConfig struct {
	Policy string `mapstructure:"policy"` // weighted or nearest
}

type QdrantConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
	APIKey     string `mapstructure:"api_key"`
	UseTLS     bool   `mapstructure:"use_tls"`
	// Timeout bounds each search or upsert call.
	Timeout time.Duration `mapstructure:"timeout"`
}

type PresenceConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type LeaderboardConfig struct {
	DefaultLimit int      `mapstructure:"default_limit"`
	MaxLimit     int      `mapstructure:"max_limit"`
	BlockedWords []string `mapstructure:"blocked_words"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("vision.region", "AWS_REGION")
	v.BindEnv("vision.access_key", "AWS_ACCESS_KEY_ID")
	v.BindEnv("vision.secret_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("vision.api_key", "OPENAI_API_KEY")
	v.BindEnv("vision.base_url", "OPENAI_BASE_URL")
	v.BindEnv("embedding.api_key", "OPENAI_API_KEY")
	v.BindEnv("qdrant.host", "QDRANT_HOST")
	v.BindEnv("qdrant.port", "QDRANT_PORT")
	v.BindEnv("qdrant.api_key", "QDRANT_API_KEY")
	v.BindEnv("archive.access_key", "ARCHIVE_ACCESS_KEY")
	v.BindEnv("archive.secret_key", "ARCHIVE_SECRET_KEY")
	v.BindEnv("server.cors.allowed_origins", "ALLOWED_ORIGINS")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Server.CORS.AllowedOrigins = splitOrigins(cfg.Server.CORS.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.body_limit_bytes", 10<<20)
	v.SetDefault("server.cors.allow_all_origins", false)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/drawmatch.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("vision.provider", "rekognition")
	v.SetDefault("vision.region", "us-east-1")
	v.SetDefault("vision.model", "gpt-4o-mini")
	v.SetDefault("vision.base_url", "https://api.openai.com/v1")
	v.SetDefault("vision.max_labels", 10)
	v.SetDefault("vision.min_confidence", 75.0)
	v.SetDefault("vision.timeout", 15*time.Second)
	v.SetDefault("moderation.min_confidence", 60.0)
	v.SetDefault("moderation.fail_open", false)
	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.model", "text-embedding-ada-002")
	v.SetDefault("embedding.dimensions", 1536)
	v.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.timeout", 15*time.Second)
	v.SetDefault("embedding.cache_size", 512)
	v.SetDefault("scoring.policy", "weighted")
	v.SetDefault("qdrant.enabled", false)
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.collection", "prompts")
	v.SetDefault("qdrant.timeout", 5*time.Second)
	v.SetDefault("presence.ttl", 5*time.Minute)
	v.SetDefault("presence.sweep_interval", time.Minute)
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.bucket", "drawings")
	v.SetDefault("leaderboard.default_limit", 10)
	v.SetDefault("leaderboard.max_limit", 100)
	v.SetDefault("leaderboard.blocked_words", []string{})
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database: unknown driver %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("database: url is required for postgres (set DATABASE_URL)")
	}
	switch c.Vision.Provider {
	case "rekognition", "openai":
	default:
		return fmt.Errorf("vision: unknown provider %q", c.Vision.Provider)
	}
	if err := c.Embedding.Validate(); err != nil {
		return err
	}
	switch c.Scoring.Policy {
	case "weighted":
	case "nearest":
		if !c.Qdrant.Enabled {
			return fmt.Errorf("scoring: nearest policy requires qdrant.enabled")
		}
	default:
		return fmt.Errorf("scoring: unknown policy %q", c.Scoring.Policy)
	}
	if c.Presence.TTL <= 0 {
		return fmt.Errorf("presence: ttl must be positive")
	}
	if c.Presence.SweepInterval <= 0 {
		return fmt.Errorf("presence: sweep_interval must be positive")
	}
	return nil
}

// splitOrigins accepts a comma separated env value as well as a YAML list.
func splitOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

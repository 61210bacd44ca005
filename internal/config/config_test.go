package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "OPENAI_API_KEY", "ALLOWED_ORIGINS", "QDRANT_HOST", "QDRANT_PORT"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server:\n  port: 8080\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Scoring.Policy != "weighted" {
		t.Fatalf("policy = %q, want weighted", cfg.Scoring.Policy)
	}
	if cfg.Presence.TTL != 5*time.Minute {
		t.Fatalf("presence ttl = %v, want 5m", cfg.Presence.TTL)
	}
	if cfg.Moderation.MinConfidence != 60 || cfg.Moderation.FailOpen {
		t.Fatalf("moderation = %+v, want floor 60 and fail closed", cfg.Moderation)
	}
	if cfg.Qdrant.Timeout != 5*time.Second {
		t.Fatalf("qdrant timeout = %v, want 5s", cfg.Qdrant.Timeout)
	}
	if cfg.Embedding.Enabled() {
		t.Fatalf("embedding should be disabled without an API key")
	}
}

func TestLoadSplitsOrigins(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, strings.Join([]string{
		"server:",
		"  cors:",
		"    allowed_origins:",
		"      - \"http://a.example, http://b.example\"",
		"      - http://c.example",
		"presence:",
		"  ttl: 30s",
		"",
	}, "\n"))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"http://a.example", "http://b.example", "http://c.example"}
	if !reflect.DeepEqual(cfg.Server.CORS.AllowedOrigins, want) {
		t.Fatalf("origins = %v, want %v", cfg.Server.CORS.AllowedOrigins, want)
	}
	if cfg.Presence.TTL != 30*time.Second {
		t.Fatalf("presence ttl = %v, want 30s", cfg.Presence.TTL)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func validConfig() Config {
	return Config{
		Database: DatabaseConfig{Driver: "sqlite"},
		Vision:   VisionConfig{Provider: "rekognition"},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-ada-002",
			Dimensions: 1536,
		},
		Scoring:  ScoringConfig{Policy: "weighted"},
		Presence: PresenceConfig{TTL: time.Minute, SweepInterval: time.Second},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "unknown driver"},
		{name: "postgres without url", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: "url is required"},
		{name: "unknown vision provider", mutate: func(c *Config) { c.Vision.Provider = "gemini" }, wantErr: "unknown provider"},
		{name: "embedding without model", mutate: func(c *Config) { c.Embedding.Model = "" }, wantErr: "model is required"},
		{name: "unknown embedding provider", mutate: func(c *Config) { c.Embedding.Provider = "cohere" }, wantErr: "unknown provider"},
		{name: "nearest without qdrant", mutate: func(c *Config) { c.Scoring.Policy = "nearest" }, wantErr: "requires qdrant"},
		{name: "nearest with qdrant", mutate: func(c *Config) {
			c.Scoring.Policy = "nearest"
			c.Qdrant.Enabled = true
		}},
		{name: "unknown policy", mutate: func(c *Config) { c.Scoring.Policy = "random" }, wantErr: "unknown policy"},
		{name: "zero ttl", mutate: func(c *Config) { c.Presence.TTL = 0 }, wantErr: "ttl must be positive"},
		{name: "zero sweep", mutate: func(c *Config) { c.Presence.SweepInterval = 0 }, wantErr: "sweep_interval must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	tests := []struct {
		cfg  DatabaseConfig
		want string
	}{
		{cfg: DatabaseConfig{Driver: "postgres", URL: "postgres://u@h/db"}, want: "postgres://u@h/db"},
		{cfg: DatabaseConfig{Driver: "sqlite"}, want: "file::memory:?cache=shared"},
		{cfg: DatabaseConfig{Driver: "sqlite", Path: "./data/x.db"}, want: "./data/x.db?_busy_timeout=5000"},
	}
	for _, tt := range tests {
		if got := tt.cfg.DSN(); got != tt.want {
			t.Errorf("DSN() = %q, want %q", got, tt.want)
		}
	}
}

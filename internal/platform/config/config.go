// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Progress ProgressConfig
	Static   StaticConfig
	Quiz     QuizConfig
	Database DatabaseConfig
	Cache    CacheConfig
	AI       AIConfig
	Log      LogConfig

	// CatalogPath points at a directory of catalog YAML files.
	// Empty means the built-in catalog.
	CatalogPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int
	Host        string
	CORSOrigins []string
}

// ProgressConfig holds learner progress persistence settings.
type ProgressConfig struct {
	Path string
}

// StaticConfig holds frontend and mirrored asset settings.
type StaticConfig struct {
	Dir          string
	AssetsDir    string
	MirrorAssets bool
	RefreshHours int // 0 disables periodic refresh
}

// QuizConfig holds quiz sampling and grading limits.
type QuizConfig struct {
	DefaultLength int
	MaxLength     int
}

// DatabaseConfig holds PostgreSQL connection settings for the activity log.
// An empty URL disables the database.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings for the tutor reply cache.
// An empty URL selects the in-process cache.
type CacheConfig struct {
	URL             string
	ReplyTTLMinutes int
}

// AIConfig holds configuration for the tutor's AI providers.
type AIConfig struct {
	Anthropic AnthropicConfig
	OpenAI    OpenAIConfig
}

// AnthropicConfig holds Anthropic provider settings.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// OpenAIConfig holds settings for OpenAI or any OpenAI-compatible API.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with LEARN_ prefix.
func Load() (*Config, error) {
	staticDir := envStr("LEARN_STATIC_DIR", "./static")

	cfg := &Config{
		Server: ServerConfig{
			Port:        envInt("LEARN_SERVER_PORT", 5000),
			Host:        envStr("LEARN_SERVER_HOST", "0.0.0.0"),
			CORSOrigins: envCSV("LEARN_SERVER_CORS_ORIGINS", "*"),
		},
		Progress: ProgressConfig{
			Path: envStr("LEARN_PROGRESS_PATH", defaultProgressPath()),
		},
		Static: StaticConfig{
			Dir:          staticDir,
			AssetsDir:    envStr("LEARN_STATIC_ASSETS_DIR", filepath.Join(staticDir, "lib")),
			MirrorAssets: envBool("LEARN_STATIC_MIRROR_ASSETS", true),
			RefreshHours: envInt("LEARN_STATIC_REFRESH_HOURS", 6),
		},
		Quiz: QuizConfig{
			DefaultLength: envInt("LEARN_QUIZ_DEFAULT_LENGTH", 8),
			MaxLength:     envInt("LEARN_QUIZ_MAX_LENGTH", 20),
		},
		Database: DatabaseConfig{
			URL:      envStr("LEARN_DATABASE_URL", ""),
			MaxConns: envInt("LEARN_DATABASE_MAX_CONNS", 5),
			MinConns: envInt("LEARN_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL:             envStr("LEARN_CACHE_URL", ""),
			ReplyTTLMinutes: envInt("LEARN_CACHE_REPLY_TTL_MINUTES", 60),
		},
		AI: AIConfig{
			Anthropic: AnthropicConfig{
				APIKey: envStr("LEARN_AI_ANTHROPIC_API_KEY", ""),
				Model:  envStr("LEARN_AI_ANTHROPIC_MODEL", ""),
			},
			OpenAI: OpenAIConfig{
				APIKey:  envStr("LEARN_AI_OPENAI_API_KEY", ""),
				BaseURL: envStr("LEARN_AI_OPENAI_BASE_URL", ""),
				Model:   envStr("LEARN_AI_OPENAI_MODEL", ""),
			},
		},
		Log: LogConfig{
			Level:  envStr("LEARN_LOG_LEVEL", "info"),
			Format: envStr("LEARN_LOG_FORMAT", "json"),
		},
		CatalogPath: envStr("LEARN_CATALOG_PATH", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("LEARN_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Progress.Path == "" {
		return fmt.Errorf("LEARN_PROGRESS_PATH is required")
	}
	if c.Quiz.MaxLength <= 0 {
		return fmt.Errorf("LEARN_QUIZ_MAX_LENGTH must be positive, got %d", c.Quiz.MaxLength)
	}
	if c.Quiz.DefaultLength <= 0 || c.Quiz.DefaultLength > c.Quiz.MaxLength {
		return fmt.Errorf("LEARN_QUIZ_DEFAULT_LENGTH must be between 1 and %d, got %d", c.Quiz.MaxLength, c.Quiz.DefaultLength)
	}
	if c.Static.RefreshHours < 0 {
		return fmt.Errorf("LEARN_STATIC_REFRESH_HOURS must not be negative, got %d", c.Static.RefreshHours)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("LEARN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}
	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.Anthropic.APIKey != "" || c.AI.OpenAI.APIKey != ""
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func defaultProgressPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".codemaster_pro.json"
	}
	return filepath.Join(home, ".codemaster_pro.json")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

func envCSV(key, fallback string) []string {
	parts := strings.Split(envStr(key, fallback), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

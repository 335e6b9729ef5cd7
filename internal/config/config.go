package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken   string `json:"telegram_token"`
	AnthropicAPIKey string `json:"anthropic_api_key"`

	DBPath       string `json:"db_path"`
	DataCacheDir string `json:"data_cache_dir"`

	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`

	// PollTimeout is the long-poll window in seconds handed to getUpdates.
	PollTimeout int `json:"poll_timeout"`
	MaxWorkers  int `json:"max_workers"`

	// DigestCron schedules the watchlist morning digest. Empty disables it.
	DigestCron string `json:"digest_cron"`

	CacheEnabled bool `json:"cache_enabled"`
	Debug        bool `json:"debug"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		DBPath:       filepath.Join(currentDir, "stockiq.db"),
		DataCacheDir: filepath.Join(currentDir, "data", "cache"),

		Model:     "claude-sonnet-4-20250514",
		MaxTokens: 900,

		PollTimeout: 30,
		MaxWorkers:  32,

		CacheEnabled: true,
		Debug:        false,
	}

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("TELEGRAM_BOT_TOKEN"); val != "" {
		c.TelegramToken = val
	}
	if val := os.Getenv("ANTHROPIC_API_KEY"); val != "" {
		c.AnthropicAPIKey = val
	}

	if val := os.Getenv("CONCALLIQ_DB_PATH"); val != "" {
		c.DBPath = val
	}
	if val := os.Getenv("CONCALLIQ_DATA_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}

	if val := os.Getenv("CONCALLIQ_MODEL"); val != "" {
		c.Model = val
	}
	if val := os.Getenv("CONCALLIQ_MAX_TOKENS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil && v > 0 {
			c.MaxTokens = v
		}
	}

	if val := os.Getenv("CONCALLIQ_POLL_TIMEOUT"); val != "" {
		if v, err := strconv.Atoi(val); err == nil && v > 0 {
			c.PollTimeout = v
		}
	}
	if val := os.Getenv("CONCALLIQ_MAX_WORKERS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil && v > 0 {
			c.MaxWorkers = v
		}
	}

	if val := os.Getenv("CONCALLIQ_DIGEST_CRON"); val != "" {
		c.DigestCron = val
	}

	if val := os.Getenv("CONCALLIQ_CACHE_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = enabled
		}
	}
	if val := os.Getenv("CONCALLIQ_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.DBPath), c.DataCacheDir}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

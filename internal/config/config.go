package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

var (
	Feeds   = []string{"hot", "new", "top", "rising"}
	Periods = []string{"now", "hour", "day", "week", "month", "year", "all"}
)

const defaultConcurrency = 10

type Config struct {
	DataDir       string   `yaml:"data_dir"`
	Subreddits    []string `yaml:"subreddits"`
	Feed          string   `yaml:"feed"`
	Period        string   `yaml:"period"`
	Limit         int      `yaml:"limit"`
	Upvotes       int64    `yaml:"upvotes"`
	Match         string   `yaml:"match"`
	DryRun        bool     `yaml:"dry_run"`
	HumanReadable bool     `yaml:"human_readable"`
	ConserveGifs  bool     `yaml:"conserve_gifs"`
	MaxConcurrent int      `yaml:"max_concurrent"`
	LogLevel      string   `yaml:"log_level"`
	DatabaseFile  string   `yaml:"database_file"`
	RedisAddr     string   `yaml:"redis_addr"`
	RedisPassword string   `yaml:"redis_password"`
	UserAgent     string   `yaml:"user_agent"`
}

// Load reads the optional YAML file first, then lets environment variables
// (including the ones from .env) override it.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("Error loading .env file",
			"Error", err.Error())
	}

	cfg := &Config{}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	if subreddits := getEnv("SUBREDDITS", ""); subreddits != "" {
		cfg.Subreddits = splitList(subreddits)
	}
	cfg.Feed = getEnv("FEED", cfg.Feed)
	cfg.Period = getEnv("PERIOD", cfg.Period)
	cfg.Limit = getEnvAsInt("LIMIT", cfg.Limit)
	cfg.Upvotes = int64(getEnvAsInt("UPVOTES", int(cfg.Upvotes)))
	cfg.Match = getEnv("MATCH", cfg.Match)
	cfg.DryRun = getEnvAsBool("DRY_RUN", cfg.DryRun)
	cfg.HumanReadable = getEnvAsBool("HUMAN_READABLE", cfg.HumanReadable)
	cfg.ConserveGifs = getEnvAsBool("CONSERVE_GIFS", cfg.ConserveGifs)
	cfg.MaxConcurrent = getEnvAsInt("MAX_CONCURRENT", cfg.MaxConcurrent)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.DatabaseFile = getEnv("DATABASE_FILE", cfg.DatabaseFile)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.UserAgent = getEnv("USER_AGENT", cfg.UserAgent)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Level() slog.Leveler {
	return parseLogLevel(strings.ToUpper(c.LogLevel))
}

func validate(cfg *Config) error {
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	if cfg.Feed == "" {
		cfg.Feed = "hot"
	}
	if cfg.Period == "" {
		cfg.Period = "day"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 25
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = defaultConcurrency
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}

	if !slices.Contains(Feeds, cfg.Feed) {
		return fmt.Errorf("invalid feed %q, expected one of %s", cfg.Feed, strings.Join(Feeds, ", "))
	}
	if !slices.Contains(Periods, cfg.Period) {
		return fmt.Errorf("invalid period %q, expected one of %s", cfg.Period, strings.Join(Periods, ", "))
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if val, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return val
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if val, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return val
	}
	return fallback
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseLogLevel(level string) slog.Leveler {
	levels := map[string]slog.Level{
		"ERROR":   slog.LevelError,
		"INFO":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"WARN":    slog.LevelWarn,
	}

	l, ok := levels[level]
	if !ok {
		l = slog.LevelInfo
	}

	return l
}

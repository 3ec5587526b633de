package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dharmasatrya/skyfinder/internal/skyscanner"
	"github.com/dharmasatrya/skyfinder/internal/suggest"
)

var ErrMissingAPIKey = errors.New("config: upstream api_key is required (RAPIDAPI_KEY)")

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Search   SearchConfig   `toml:"search"`
	Cache    CacheConfig    `toml:"cache"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Port       string   `toml:"port"`
	SessionTTL Duration `toml:"session_ttl"`
}

type UpstreamConfig struct {
	BaseURL        string   `toml:"base_url"`
	APIKey         string   `toml:"api_key"`
	APIHost        string   `toml:"api_host"`
	Timeout        Duration `toml:"timeout"`
	RateLimitRPS   float64  `toml:"rate_limit_rps"`
	RateLimitBurst int      `toml:"rate_limit_burst"`
}

type SearchConfig struct {
	SuggestDebounce Duration `toml:"suggest_debounce"`
	Timeout         Duration `toml:"timeout"`
}

type CacheConfig struct {
	Enabled   bool     `toml:"enabled"`
	RedisHost string   `toml:"redis_host"`
	RedisPort string   `toml:"redis_port"`
	TTL       Duration `toml:"ttl"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration lets TOML files spell durations as strings such as "300ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:       "8080",
			SessionTTL: Duration{30 * time.Minute},
		},
		Upstream: UpstreamConfig{
			BaseURL:        skyscanner.DefaultBaseURL,
			APIHost:        skyscanner.DefaultHost,
			Timeout:        Duration{15 * time.Second},
			RateLimitRPS:   5,
			RateLimitBurst: 10,
		},
		Search: SearchConfig{
			SuggestDebounce: Duration{suggest.DefaultDelay},
			Timeout:         Duration{30 * time.Second},
		},
		Cache: CacheConfig{
			Enabled:   false,
			RedisHost: "localhost",
			RedisPort: "6379",
			TTL:       Duration{24 * time.Hour},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load starts from Default, decodes the TOML file at path when path is not
// empty, and finally applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Upstream.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Server.Port == "" {
		return errors.New("config: server port is required")
	}
	if c.Upstream.RateLimitRPS <= 0 || c.Upstream.RateLimitBurst <= 0 {
		return errors.New("config: rate limit must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.SessionTTL.Duration = getEnvDuration("SESSION_TTL", cfg.Server.SessionTTL.Duration)

	cfg.Upstream.BaseURL = getEnv("SKYSCANNER_BASE_URL", cfg.Upstream.BaseURL)
	cfg.Upstream.APIKey = getEnv("RAPIDAPI_KEY", cfg.Upstream.APIKey)
	cfg.Upstream.APIHost = getEnv("RAPIDAPI_HOST", cfg.Upstream.APIHost)
	cfg.Upstream.Timeout.Duration = getEnvDuration("UPSTREAM_TIMEOUT", cfg.Upstream.Timeout.Duration)
	cfg.Upstream.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", cfg.Upstream.RateLimitRPS)
	cfg.Upstream.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", cfg.Upstream.RateLimitBurst)

	cfg.Search.SuggestDebounce.Duration = getEnvDuration("SUGGEST_DEBOUNCE", cfg.Search.SuggestDebounce.Duration)
	cfg.Search.Timeout.Duration = getEnvDuration("SEARCH_TIMEOUT", cfg.Search.Timeout.Duration)

	cfg.Cache.Enabled = getEnvBool("CACHE_ENABLED", cfg.Cache.Enabled)
	cfg.Cache.RedisHost = getEnv("REDIS_HOST", cfg.Cache.RedisHost)
	cfg.Cache.RedisPort = getEnv("REDIS_PORT", cfg.Cache.RedisPort)
	cfg.Cache.TTL.Duration = getEnvDuration("REDIS_TTL", cfg.Cache.TTL.Duration)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/skyfinder/internal/models"
)

// Cache stores airport suggestion lists by query. Flight results are never
// cached.
type Cache interface {
	Get(ctx context.Context, query string) ([]models.Airport, bool)
	Set(ctx context.Context, query string, airports []models.Airport) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host: "localhost",
		Port: "6379",
		TTL:  24 * time.Hour,
	}
}

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return NewRedisCacheWithClient(client, cfg.TTL), nil
}

func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, query string) ([]models.Airport, bool) {
	data, err := c.client.Get(ctx, Key(query)).Bytes()
	if err != nil {
		return nil, false
	}

	var airports []models.Airport
	if err := json.Unmarshal(data, &airports); err != nil {
		return nil, false
	}
	return airports, true
}

func (c *RedisCache) Set(ctx context.Context, query string, airports []models.Airport) error {
	data, err := json.Marshal(airports)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(query), data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, query string) ([]models.Airport, bool) {
	return nil, false
}

func (c *NoOpCache) Set(ctx context.Context, query string, airports []models.Airport) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

// Key is case and surrounding-whitespace insensitive.
func Key(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	hash := sha256.Sum256([]byte(normalized))
	return "airports:" + hex.EncodeToString(hash[:])
}

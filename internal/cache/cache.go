// Package cache stores complete offer lists keyed by route query so a
// repeat of the same one-way search inside the TTL window is served
// locally instead of hitting the upstream API again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dnurhadi/skyfare/internal/models"
)

// Query identifies one cacheable search: a route, a date, one adult,
// one-way.
type Query struct {
	Origin        string
	Destination   string
	DepartureDate string
}

type Cache interface {
	Get(ctx context.Context, q Query) ([]models.Offer, bool)
	Set(ctx context.Context, q Query, offers []models.Offer) error
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
		Host:     "localhost",
		Port:     "6379",
		Password: "",
		DB:       0,
		TTL:      5 * time.Minute,
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
		return nil, err
	}

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, q Query) ([]models.Offer, bool) {
	data, err := c.client.Get(ctx, Key(q)).Bytes()
	if err != nil {
		return nil, false
	}

	var offers []models.Offer
	if err := json.Unmarshal(data, &offers); err != nil {
		return nil, false
	}

	return offers, true
}

func (c *RedisCache) Set(ctx context.Context, q Query, offers []models.Offer) error {
	data, err := json.Marshal(offers)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, Key(q), data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NoOpCache keeps the service working without Redis; every lookup
// misses.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, q Query) ([]models.Offer, bool) {
	return nil, false
}

func (c *NoOpCache) Set(ctx context.Context, q Query, offers []models.Offer) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

// Key derives the storage key for a query. Hashing keeps the key length
// flat regardless of airport code oddities.
func Key(q Query) string {
	data, _ := json.Marshal(q)
	hash := sha256.Sum256(data)
	return "offers:" + hex.EncodeToString(hash[:])
}

// Searcher matches the transport function the decorator wraps.
type Searcher interface {
	SearchFlights(ctx context.Context, origin, destination, date string) ([]models.Offer, error)
}

// CachedSearcher decorates a transport with the offer-list cache.
// Failures are never cached, only resolved lists (including empty
// ones).
type CachedSearcher struct {
	next  Searcher
	cache Cache
}

func NewCachedSearcher(next Searcher, cache Cache) *CachedSearcher {
	return &CachedSearcher{next: next, cache: cache}
}

func (s *CachedSearcher) SearchFlights(ctx context.Context, origin, destination, date string) ([]models.Offer, error) {
	q := Query{Origin: origin, Destination: destination, DepartureDate: date}

	if offers, ok := s.cache.Get(ctx, q); ok {
		return offers, nil
	}

	offers, err := s.next.SearchFlights(ctx, origin, destination, date)
	if err != nil {
		return nil, err
	}

	if offers == nil {
		offers = []models.Offer{}
	}
	_ = s.cache.Set(ctx, q, offers)
	return offers, nil
}

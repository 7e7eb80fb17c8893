package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dnurhadi/skyfare/internal/amadeus"
	"github.com/dnurhadi/skyfare/internal/cache"
	"github.com/dnurhadi/skyfare/internal/datewindow"
	"github.com/dnurhadi/skyfare/internal/handler"
	"github.com/dnurhadi/skyfare/internal/ratelimit"
)

type Config struct {
	Port         string
	CacheEnabled bool
	RedisHost    string
	RedisPort    string
	RedisTTL     time.Duration

	AmadeusBaseURL string
	AmadeusAuthURL string
	AmadeusAPIKey  string
	AmadeusSecret  string

	SharePath       string
	WindowDays      int
	IncludePastDays bool
}

func main() {
	cfg := loadConfig()

	if cfg.AmadeusAPIKey == "" || cfg.AmadeusSecret == "" {
		log.Fatal("AMADEUS_API_KEY and AMADEUS_API_SECRET must be set")
	}

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	auth := amadeus.NewAuthenticator(cfg.AmadeusAuthURL, cfg.AmadeusAPIKey, cfg.AmadeusSecret, &http.Client{Timeout: 10 * time.Second})

	limiter := ratelimit.NewEndpointLimiterWithDefaults()
	limiter.SetEndpointLimit("flight-offers", 4, 8)
	limiter.SetEndpointLimit("airlines", 2, 4)

	client := amadeus.NewClient(cfg.AmadeusBaseURL, auth, amadeus.WithLimiter(limiter))

	var offerCache cache.Cache
	if cfg.CacheEnabled {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Host: cfg.RedisHost,
			Port: cfg.RedisPort,
			TTL:  cfg.RedisTTL,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		offerCache = redisCache
		log.Printf("Redis offer cache enabled (host: %s:%s, TTL: %v)", cfg.RedisHost, cfg.RedisPort, cfg.RedisTTL)
	} else {
		offerCache = cache.NewNoOpCache()
		log.Println("Offer cache disabled")
	}

	searcher := cache.NewCachedSearcher(client, offerCache)

	window := datewindow.Config{
		IncludePast: cfg.IncludePastDays,
		WindowDays:  cfg.WindowDays,
	}

	searchHandler := handler.NewSearchHandler(searcher, offerCache, window, cfg.SharePath)

	api := e.Group("/api/v1")
	api.POST("/flights/search", searchHandler.Search)
	api.GET("/flights/prices", searchHandler.DatePrices)
	api.POST("/session/reset", searchHandler.Reset)
	e.GET("/health", handler.HealthHandler)

	log.Printf("Starting skyfare server on port %s", cfg.Port)

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func loadConfig() Config {
	return Config{
		Port:         getEnv("PORT", "8080"),
		CacheEnabled: getEnvBool("CACHE_ENABLED", true),
		RedisHost:    getEnv("REDIS_HOST", "localhost"),
		RedisPort:    getEnv("REDIS_PORT", "6379"),
		RedisTTL:     getEnvDuration("REDIS_TTL", 5*time.Minute),

		AmadeusBaseURL: getEnv("AMADEUS_BASE_URL", amadeus.DefaultBaseURL),
		AmadeusAuthURL: getEnv("AMADEUS_AUTH_URL", amadeus.DefaultAuthURL),
		AmadeusAPIKey:  getEnv("AMADEUS_API_KEY", ""),
		AmadeusSecret:  getEnv("AMADEUS_API_SECRET", ""),

		SharePath:       getEnv("SHARE_PATH", "/flights"),
		WindowDays:      getEnvInt("DATE_WINDOW_DAYS", datewindow.DefaultConfig().WindowDays),
		IncludePastDays: getEnvBool("DATE_WINDOW_INCLUDE_PAST", false),
	}
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

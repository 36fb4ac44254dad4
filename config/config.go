package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port              string
	MongoURI          string
	MongoDB           string
	NATSUrl           string
	FetchInterval     time.Duration
	InitialFetchDelay time.Duration
	FeedTimeout       time.Duration
	FeedMaxItems      int
	FeedUserAgent     string
	FeedsFile         string
	AdminToken        string
	CORSOrigins       []string
	Environment       string
	Feeds             []FeedSource
}

// Load reads the configuration from the environment. The feed registry is
// taken from FEEDS_FILE when set, otherwise the built-in list is used.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getEnv("MONGO_DB", "technews"),
		NATSUrl:           getEnv("NATS_URL", ""),
		FetchInterval:     getDurationEnv("FETCH_INTERVAL", "2h"),
		InitialFetchDelay: getDurationEnv("INITIAL_FETCH_DELAY", "5s"),
		FeedTimeout:       getDurationEnv("FEED_TIMEOUT", "10s"),
		FeedMaxItems:      getIntEnv("FEED_MAX_ITEMS", 20),
		FeedUserAgent:     getEnv("FEED_USER_AGENT", ""),
		FeedsFile:         getEnv("FEEDS_FILE", ""),
		AdminToken:        getEnv("ADMIN_TOKEN", ""),
		CORSOrigins:       getListEnv("CORS_ORIGINS"),
		Environment:       getEnv("ENVIRONMENT", "development"),
	}

	feeds, err := LoadFeeds(cfg.FeedsFile)
	if err != nil {
		return nil, err
	}
	cfg.Feeds = feeds

	if cfg.AdminToken == "" {
		log.Println("[WARN] ADMIN_TOKEN is not set, admin endpoints are disabled")
	}

	log.Printf("[INFO] Config loaded - FetchInterval: %v, FeedTimeout: %v, MaxItems: %d, Feeds: %d",
		cfg.FetchInterval, cfg.FeedTimeout, cfg.FeedMaxItems, len(cfg.Feeds))

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("[WARN] Invalid duration for %s: %q, using %s", key, value, defaultValue)
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("[WARN] Invalid integer for %s: %q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

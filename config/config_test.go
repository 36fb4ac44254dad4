package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FETCH_INTERVAL", "30m")
	t.Setenv("FEED_MAX_ITEMS", "not-a-number")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("FEEDS_FILE", "")
	t.Setenv("FEED_USER_AGENT", "FeedBot/2.0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.FetchInterval != 30*time.Minute {
		t.Fatalf("expected 30m interval, got %v", cfg.FetchInterval)
	}
	if cfg.FeedMaxItems != 20 {
		t.Fatalf("expected fallback max items 20, got %d", cfg.FeedMaxItems)
	}
	if cfg.FeedTimeout != 10*time.Second {
		t.Fatalf("expected default feed timeout 10s, got %v", cfg.FeedTimeout)
	}
	if cfg.FeedUserAgent != "FeedBot/2.0" {
		t.Fatalf("expected feed user agent from env, got %q", cfg.FeedUserAgent)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected CORS origins: %v", cfg.CORSOrigins)
	}
	if len(cfg.Feeds) != len(DefaultFeeds()) {
		t.Fatalf("expected default feeds, got %d", len(cfg.Feeds))
	}
}

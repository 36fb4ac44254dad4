package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidFeed = errors.New("invalid feed source")

// FeedSource is one entry of the feed registry. Name is what gets stored as
// the article's source name, regardless of what the feed calls itself.
type FeedSource struct {
	URL  string `yaml:"url" json:"url"`
	Name string `yaml:"name" json:"name"`
}

// DefaultFeeds returns the built-in registry in fetch order.
func DefaultFeeds() []FeedSource {
	return []FeedSource{
		{URL: "https://techcrunch.com/feed/", Name: "TechCrunch"},
		{URL: "https://www.theverge.com/rss/index.xml", Name: "The Verge"},
		{URL: "https://arstechnica.com/feed/", Name: "Ars Technica"},
		{URL: "https://venturebeat.com/category/ai/feed/", Name: "VentureBeat AI"},
		{URL: "https://www.wired.com/feed/rss", Name: "Wired"},
	}
}

type feedsFile struct {
	Feeds []FeedSource `yaml:"feeds"`
}

// LoadFeeds reads a YAML registry of the form
//
//	feeds:
//	  - url: https://example.com/rss
//	    name: Example
//
// An empty path returns DefaultFeeds.
func LoadFeeds(path string) ([]FeedSource, error) {
	if path == "" {
		return DefaultFeeds(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}
	return ParseFeeds(data)
}

func ParseFeeds(data []byte) ([]FeedSource, error) {
	var f feedsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse feeds file: %w", err)
	}
	if len(f.Feeds) == 0 {
		return nil, fmt.Errorf("%w: no feeds listed", ErrInvalidFeed)
	}
	for i, src := range f.Feeds {
		if src.URL == "" || src.Name == "" {
			return nil, fmt.Errorf("%w: entry %d needs both url and name", ErrInvalidFeed, i)
		}
	}
	return f.Feeds, nil
}

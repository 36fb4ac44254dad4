package fetcher

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"technews/classifier"
	"technews/config"
	"technews/metrics"
	"technews/model"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultMaxItems  = 20
	DefaultUserAgent = "TechNewsAggregator/1.0"
)

// ArticleLookup is the read side of the article store the fetcher needs for
// skipping items that were stored by an earlier run.
type ArticleLookup interface {
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
}

type Fetcher struct {
	client     *http.Client
	parser     *gofeed.Parser
	lookup     ArticleLookup
	classifier *classifier.Classifier
	relevance  *classifier.RelevanceFilter
	userAgent  string
	timeout    time.Duration
	maxItems   int
}

type Option func(*Fetcher)

func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithMaxItems(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxItems = n
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

func WithClassifier(c *classifier.Classifier) Option {
	return func(f *Fetcher) { f.classifier = c }
}

func WithRelevanceFilter(r *classifier.RelevanceFilter) Option {
	return func(f *Fetcher) { f.relevance = r }
}

func NewFetcher(lookup ArticleLookup, opts ...Option) *Fetcher {
	f := &Fetcher{
		parser:     gofeed.NewParser(),
		lookup:     lookup,
		classifier: classifier.NewClassifier(classifier.DefaultTable()),
		relevance:  classifier.NewRelevanceFilter(classifier.DefaultRelevanceKeywords()),
		userAgent:  DefaultUserAgent,
		timeout:    DefaultTimeout,
		maxItems:   DefaultMaxItems,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: f.timeout}
	}
	return f
}

// Fetch downloads one feed and turns its newest items into unsaved articles.
// Network and parse failures are logged and yield no articles; only a failing
// store lookup is returned as an error. runTime stamps fetchedDate and
// replaces missing or unparseable publish dates.
func (f *Fetcher) Fetch(ctx context.Context, src config.FeedSource, runTime time.Time) ([]model.Article, error) {
	log.Printf("[INFO] Fetching from %s...", src.Name)

	feed, err := f.fetchFeed(ctx, src.URL)
	if err != nil {
		log.Printf("[WARN] Error fetching from %s: %v", src.Name, err)
		metrics.FeedFetchesTotal.WithLabelValues(src.Name, "error").Inc()
		return nil, nil
	}
	metrics.FeedFetchesTotal.WithLabelValues(src.Name, "success").Inc()

	items := feed.Items
	if len(items) > f.maxItems {
		items = items[:f.maxItems]
	}

	var articles []model.Article
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		summary := summarize(contentSnippet(item), title)

		// Matching runs on the stored text so every kept article carries
		// its keyword.
		keyword := f.relevance.MatchedKeyword(title, summary)
		if title == "" || keyword == "" {
			metrics.FeedItemsTotal.WithLabelValues(src.Name, "irrelevant").Inc()
			continue
		}

		link, ok := normalizeURL(item.Link)
		if !ok {
			metrics.FeedItemsTotal.WithLabelValues(src.Name, "invalid_url").Inc()
			continue
		}
		if _, dup := seen[link]; dup {
			metrics.FeedItemsTotal.WithLabelValues(src.Name, "duplicate").Inc()
			continue
		}

		exists, err := f.lookup.ExistsBySourceURL(ctx, link)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", link, err)
		}
		if exists {
			metrics.FeedItemsTotal.WithLabelValues(src.Name, "duplicate").Inc()
			continue
		}
		seen[link] = struct{}{}

		category := f.classifier.Classify(title, summary)
		log.Printf("[DEBUG] %s: %q matched %q, category %s", src.Name, title, keyword, category)

		articles = append(articles, model.Article{
			Title:         title,
			Summary:       summary,
			SourceURL:     link,
			SourceName:    src.Name,
			ImageURL:      resolveImage(item),
			Category:      category,
			PublishedDate: publishedDate(item, runTime),
			FetchedDate:   runTime,
			Approved:      false,
			Featured:      false,
		})
		metrics.FeedItemsTotal.WithLabelValues(src.Name, "accepted").Inc()
	}

	log.Printf("[INFO] %s: %d of %d items are new candidates", src.Name, len(articles), len(items))
	return articles, nil
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	feed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

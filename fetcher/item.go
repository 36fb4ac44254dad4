package fetcher

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const maxSummaryLength = 300

var imgSrcPattern = regexp.MustCompile(`<img[^>]+src="([^">]+)"`)

// contentSnippet is the item's description (or content) reduced to plain
// text with collapsed whitespace.
func contentSnippet(item *gofeed.Item) string {
	raw := item.Description
	if strings.TrimSpace(raw) == "" {
		raw = item.Content
	}
	return htmlToText(raw)
}

func htmlToText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	// Parsing plain text too decodes entities such as &amp;.
	text := raw
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err == nil {
		text = doc.Text()
	}
	return strings.Join(strings.Fields(text), " ")
}

// summarize truncates the snippet to maxSummaryLength characters, or falls
// back to the title when there is no snippet.
func summarize(snippet, title string) string {
	if snippet == "" {
		return title
	}
	if utf8.RuneCountInString(snippet) <= maxSummaryLength {
		return snippet
	}
	return string([]rune(snippet)[:maxSummaryLength])
}

// resolveImage tries, in order: the first enclosure, a media:thumbnail
// extension, the first <img src> in the raw content. No image is "".
func resolveImage(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}
	if thumb := mediaThumbnail(item); thumb != "" {
		return thumb
	}
	for _, raw := range []string{item.Content, item.Description} {
		if !strings.Contains(raw, "<img") {
			continue
		}
		if m := imgSrcPattern.FindStringSubmatch(raw); m != nil {
			return m[1]
		}
	}
	return ""
}

func mediaThumbnail(item *gofeed.Item) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, thumb := range media["thumbnail"] {
		if u := thumb.Attrs["url"]; u != "" {
			return u
		}
	}
	// media:group wraps thumbnails in some feeds
	for _, group := range media["group"] {
		for _, thumb := range group.Children["thumbnail"] {
			if u := thumb.Attrs["url"]; u != "" {
				return u
			}
		}
	}
	return ""
}

func publishedDate(item *gofeed.Item, fallback time.Time) time.Time {
	if item.PublishedParsed != nil && !item.PublishedParsed.IsZero() {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil && !item.UpdatedParsed.IsZero() {
		return item.UpdatedParsed.UTC()
	}
	return fallback
}

// normalizeURL accepts only absolute http(s) links.
func normalizeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return raw, true
}

// Package classifier assigns articles to categories and decides whether an
// item is tech news at all. Both work on plain lower-cased substring
// matches; "ai" matching inside "said" is accepted behavior.
package classifier

import (
	"strings"

	"technews/model"
)

// CategoryKeywords binds a category to the keywords that select it.
type CategoryKeywords struct {
	Category model.Category
	Keywords []string
}

// KeywordTable is evaluated in order; the first matching entry wins.
type KeywordTable []CategoryKeywords

// Keywords returns every keyword of the table, in table order.
func (t KeywordTable) Keywords() []string {
	var all []string
	for _, entry := range t {
		all = append(all, entry.Keywords...)
	}
	return all
}

type Classifier struct {
	table KeywordTable
}

func NewClassifier(table KeywordTable) *Classifier {
	return &Classifier{table: normalizeTable(table)}
}

// Classify returns the first category whose keywords occur in title+snippet,
// or model.CategoryGeneral.
func (c *Classifier) Classify(title, snippet string) model.Category {
	text := matchText(title, snippet)
	for _, entry := range c.table {
		if containsAny(text, entry.Keywords) {
			return entry.Category
		}
	}
	return model.CategoryGeneral
}

type RelevanceFilter struct {
	keywords []string
}

func NewRelevanceFilter(keywords []string) *RelevanceFilter {
	return &RelevanceFilter{keywords: normalize(keywords)}
}

// Relevant reports whether any configured keyword occurs in title+snippet.
func (f *RelevanceFilter) Relevant(title, snippet string) bool {
	return f.MatchedKeyword(title, snippet) != ""
}

// MatchedKeyword returns the first keyword found, or "" when none is.
func (f *RelevanceFilter) MatchedKeyword(title, snippet string) string {
	text := matchText(title, snippet)
	for _, kw := range f.keywords {
		if strings.Contains(text, kw) {
			return kw
		}
	}
	return ""
}

func matchText(title, snippet string) string {
	return strings.ToLower(title + " " + snippet)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// normalize lower-cases keywords but keeps their spacing, so " ai " can be
// used to match the word alone. Blank keywords are dropped.
func normalize(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		out = append(out, strings.ToLower(kw))
	}
	return out
}

func normalizeTable(table KeywordTable) KeywordTable {
	out := make(KeywordTable, 0, len(table))
	for _, entry := range table {
		out = append(out, CategoryKeywords{Category: entry.Category, Keywords: normalize(entry.Keywords)})
	}
	return out
}

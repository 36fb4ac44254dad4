package model

import (
	"strings"
	"time"
)

type IngestRequest struct {
	Trigger   string `json:"trigger"` // "schedule", "manual", "nats"
	RequestID string `json:"requestId"`
}

type IngestResult struct {
	RunID        string         `json:"runId"`
	RequestID    string         `json:"requestId,omitempty"`
	Trigger      string         `json:"trigger"`
	ArticleCount int            `json:"articleCount"`
	PerSource    map[string]int `json:"perSource"`
	Success      bool           `json:"success"`
	Error        string         `json:"error,omitempty"`
	StartedAt    time.Time      `json:"startedAt"`
	FinishedAt   time.Time      `json:"finishedAt"`
}

// ArticleEvent is published for every newly stored article.
type ArticleEvent struct {
	Article   Article   `json:"article"`
	RunID     string    `json:"runId"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// Subject returns the NATS subject token for a category, e.g. "crypto-stocks".
func (c Category) Subject() string {
	return strings.ReplaceAll(strings.ToLower(string(c)), "/", "-")
}

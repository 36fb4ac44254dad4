// Package ingest runs the feed ingestion cycle: every registered feed is
// fetched in order, its new candidates are stored, and the number of newly
// stored articles is reported back to whoever triggered the run.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"technews/config"
	"technews/metrics"
	"technews/model"
)

// ErrRunInProgress is returned when a run is requested while another one is
// still executing.
var ErrRunInProgress = errors.New("ingestion already in progress")

const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerNATS     = "nats"
)

type Fetcher interface {
	Fetch(ctx context.Context, src config.FeedSource, runTime time.Time) ([]model.Article, error)
}

type Store interface {
	InsertMany(ctx context.Context, articles []model.Article) ([]model.Article, error)
}

// Notifier observes ingestion. Implementations must not block for long.
type Notifier interface {
	ArticlesStored(ctx context.Context, runID string, articles []model.Article)
	RunFinished(ctx context.Context, result model.IngestResult)
}

type Ingestor struct {
	sources  []config.FeedSource
	fetcher  Fetcher
	store    Store
	notifier Notifier
	now      func() time.Time
	guard    *semaphore.Weighted
}

type Option func(*Ingestor)

func WithNotifier(n Notifier) Option {
	return func(i *Ingestor) { i.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(i *Ingestor) { i.now = now }
}

func New(sources []config.FeedSource, fetcher Fetcher, store Store, opts ...Option) *Ingestor {
	i := &Ingestor{
		sources: append([]config.FeedSource(nil), sources...),
		fetcher: fetcher,
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
		guard:   semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run performs one ingestion pass and returns the number of new articles.
func (i *Ingestor) Run(ctx context.Context) (int, error) {
	res, err := i.RunWithResult(ctx, model.IngestRequest{Trigger: TriggerManual})
	return res.ArticleCount, err
}

// RunWithResult is Run with the per-source breakdown. Feeds are processed
// one at a time; a feed that cannot be fetched contributes nothing, while a
// store failure aborts the run.
func (i *Ingestor) RunWithResult(ctx context.Context, req model.IngestRequest) (model.IngestResult, error) {
	if req.Trigger == "" {
		req.Trigger = TriggerManual
	}
	if !i.guard.TryAcquire(1) {
		log.Printf("[WARN] Ingestion trigger=%s rejected: a run is already in progress", req.Trigger)
		metrics.IngestionRunsTotal.WithLabelValues(req.Trigger, "rejected").Inc()
		return model.IngestResult{Trigger: req.Trigger, RequestID: req.RequestID, Error: ErrRunInProgress.Error()}, ErrRunInProgress
	}
	defer i.guard.Release(1)

	metrics.IngestionInProgress.Set(1)
	defer metrics.IngestionInProgress.Set(0)

	runTime := i.now()
	result := model.IngestResult{
		RunID:     uuid.NewString(),
		RequestID: req.RequestID,
		Trigger:   req.Trigger,
		PerSource: make(map[string]int, len(i.sources)),
		StartedAt: runTime,
	}
	log.Printf("[INFO] Starting news fetch from all sources (run=%s, trigger=%s)", result.RunID, req.Trigger)

	err := i.runSources(ctx, runTime, &result)

	result.FinishedAt = i.now()
	status := "success"
	if err != nil {
		status = "error"
		result.Error = err.Error()
		log.Printf("[ERROR] News fetch failed after %d new articles (run=%s): %v", result.ArticleCount, result.RunID, err)
	} else {
		result.Success = true
		log.Printf("[INFO] News fetch complete. Total new articles: %d (run=%s)", result.ArticleCount, result.RunID)
	}
	metrics.IngestionRunsTotal.WithLabelValues(req.Trigger, status).Inc()
	metrics.IngestionRunDuration.Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())

	if i.notifier != nil {
		i.notifier.RunFinished(ctx, result)
	}
	return result, err
}

func (i *Ingestor) runSources(ctx context.Context, runTime time.Time, result *model.IngestResult) error {
	for _, src := range i.sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		articles, err := i.fetcher.Fetch(ctx, src, runTime)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", src.Name, err)
		}
		if len(articles) == 0 {
			result.PerSource[src.Name] = 0
			continue
		}

		stored, err := i.store.InsertMany(ctx, articles)
		if err != nil {
			return fmt.Errorf("save articles from %s: %w", src.Name, err)
		}
		if len(stored) < len(articles) {
			log.Printf("[INFO] Some articles from %s already exist, skipped %d duplicates", src.Name, len(articles)-len(stored))
		}
		log.Printf("[INFO] Saved %d new articles from %s", len(stored), src.Name)

		result.PerSource[src.Name] = len(stored)
		result.ArticleCount += len(stored)
		for _, a := range stored {
			metrics.ArticlesIngested.WithLabelValues(src.Name, string(a.Category)).Inc()
		}
		if i.notifier != nil && len(stored) > 0 {
			i.notifier.ArticlesStored(ctx, result.RunID, stored)
		}
	}
	return nil
}

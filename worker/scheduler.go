package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"technews/ingest"
	"technews/model"
)

// Runner is the ingestion entry point shared by the scheduler, the NATS
// consumer and the admin API.
type Runner interface {
	RunWithResult(ctx context.Context, req model.IngestRequest) (model.IngestResult, error)
}

// Scheduler triggers ingestion once after InitialDelay and then on every
// Interval tick until stopped.
type Scheduler struct {
	runner       Runner
	interval     time.Duration
	initialDelay time.Duration

	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

func NewScheduler(runner Runner, interval, initialDelay time.Duration) *Scheduler {
	return &Scheduler{
		runner:       runner,
		interval:     interval,
		initialDelay: initialDelay,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	schedCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(schedCtx)
	}()
	log.Printf("[INFO] Scheduler started: first fetch in %v, then every %v", s.initialDelay, s.interval)
}

// Stop cancels the schedule and waits for an in-flight run to return.
func (s *Scheduler) Stop() {
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.wg.Wait()
	log.Println("[INFO] Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	initial := time.NewTimer(s.initialDelay)
	defer initial.Stop()

	select {
	case <-ctx.Done():
		return
	case <-initial.C:
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Println("[INFO] Running scheduled news fetch")
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	_, err := s.runner.RunWithResult(ctx, model.IngestRequest{Trigger: ingest.TriggerSchedule})
	switch {
	case err == nil:
	case errors.Is(err, ingest.ErrRunInProgress):
		log.Println("[INFO] Skipping scheduled fetch, previous run still in progress")
	default:
		log.Printf("[ERROR] Scheduled news fetch failed: %v", err)
	}
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"technews/ingest"
	"technews/metrics"
	"technews/model"
)

const (
	SubjectIngestRequest = "news.ingest.request"
	SubjectIngestResult  = "news.ingest.result"
	SubjectArticlePrefix = "news.articles."

	ingestStream   = "NEWS_INGEST"
	articlesStream = "NEWS_ARTICLES"
	durableName    = "technews-ingest-workers"
	requestTimeout = 5 * time.Minute
)

// Worker consumes ingestion requests from JetStream and answers each one
// with an IngestResult.
type Worker struct {
	js     nats.JetStreamContext
	runner Runner
	sub    *nats.Subscription

	cancelFunc context.CancelFunc
}

func NewWorker(nc *nats.Conn, runner Runner) (*Worker, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}

	if err := setupStreams(js); err != nil {
		return nil, err
	}

	return &Worker{
		js:     js,
		runner: runner,
	}, nil
}

func (w *Worker) Start(ctx context.Context) error {
	workerCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	sub, err := w.js.Subscribe(SubjectIngestRequest, func(msg *nats.Msg) {
		w.handleIngestRequest(workerCtx, msg)
	},
		nats.Durable(durableName),
		nats.ManualAck(),
		nats.MaxAckPending(1),
		nats.AckWait(requestTimeout+time.Minute),
	)
	if err != nil {
		cancel()
		return err
	}
	w.sub = sub

	log.Printf("[INFO] Subscribed to %s", SubjectIngestRequest)
	return nil
}

func (w *Worker) Stop() {
	log.Println("[INFO] Stopping ingest worker...")
	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.sub != nil {
		if err := w.sub.Drain(); err != nil {
			log.Printf("[WARN] Failed to drain subscription: %v", err)
		}
	}
}

func (w *Worker) handleIngestRequest(ctx context.Context, msg *nats.Msg) {
	result, err := w.process(ctx, msg.Data)
	if result.RunID != "" || result.Error != "" {
		w.publishResult(result)
	}

	switch {
	case err == nil, errors.Is(err, ingest.ErrRunInProgress):
		// A rejected request is answered, not redelivered.
		logAckError(msg.Ack())
	case errors.Is(err, errBadRequest):
		logAckError(msg.Term())
	default:
		logAckError(msg.Nak())
	}
}

var errBadRequest = errors.New("malformed ingest request")

func (w *Worker) process(ctx context.Context, data []byte) (model.IngestResult, error) {
	var req model.IngestRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Printf("[ERROR] Failed to unmarshal ingest request: %v", err)
		metrics.NatsMessagesReceived.WithLabelValues(SubjectIngestRequest, "invalid").Inc()
		return model.IngestResult{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	metrics.NatsMessagesReceived.WithLabelValues(SubjectIngestRequest, "success").Inc()

	req.Trigger = ingest.TriggerNATS
	log.Printf("[INFO] Processing ingest request: %s", req.RequestID)

	runCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	return w.runner.RunWithResult(runCtx, req)
}

func (w *Worker) publishResult(result model.IngestResult) {
	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal ingest result: %v", err)
		return
	}
	publish(w.js, SubjectIngestResult, data)
}

func logAckError(err error) {
	if err != nil {
		log.Printf("[WARN] Failed to acknowledge ingest request: %v", err)
	}
}

func setupStreams(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      ingestStream,
		Subjects:  []string{"news.ingest.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return err
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      articlesStream,
		Subjects:  []string{SubjectArticlePrefix + ">"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return err
	}

	log.Println("[INFO] NATS streams configured successfully")
	return nil
}

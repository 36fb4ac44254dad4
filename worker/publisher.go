package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"technews/ingest"
	"technews/metrics"
	"technews/model"
)

const eventVersion = "1.0"

// Publisher is the subset of nats.JetStreamContext used for events.
type Publisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// EventPublisher announces newly stored articles and finished runs on
// JetStream. It satisfies ingest.Notifier.
type EventPublisher struct {
	pub    Publisher
	source string
	now    func() time.Time
}

func NewEventPublisher(pub Publisher, source string) *EventPublisher {
	return &EventPublisher{
		pub:    pub,
		source: source,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func ArticleSubject(c model.Category) string {
	return SubjectArticlePrefix + c.Subject()
}

func (p *EventPublisher) ArticlesStored(_ context.Context, runID string, articles []model.Article) {
	for _, a := range articles {
		data, err := json.Marshal(model.ArticleEvent{
			Article:   a,
			RunID:     runID,
			Timestamp: p.now(),
			Source:    p.source,
			Version:   eventVersion,
		})
		if err != nil {
			log.Printf("[ERROR] Failed to marshal article event: %v", err)
			continue
		}
		publish(p.pub, ArticleSubject(a.Category), data)
	}
}

// RunFinished publishes runs started locally. Runs requested over NATS are
// answered by the Worker itself.
func (p *EventPublisher) RunFinished(_ context.Context, result model.IngestResult) {
	if result.Trigger == ingest.TriggerNATS {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal ingest result: %v", err)
		return
	}
	publish(p.pub, SubjectIngestResult, data)
}

func publish(pub Publisher, subject string, data []byte) {
	if _, err := pub.Publish(subject, data); err != nil {
		metrics.NatsMessagesPublished.WithLabelValues(subject, "error").Inc()
		log.Printf("[ERROR] Failed to publish to %s: %v", subject, err)
		return
	}
	metrics.NatsMessagesPublished.WithLabelValues(subject, "success").Inc()
}

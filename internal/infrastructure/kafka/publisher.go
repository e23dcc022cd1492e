package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Publisher sends JSON events in the background, retrying a few times
// with a linear backoff before giving up.
type Publisher struct {
	producer KafkaProducer
	retries  int
	backoff  time.Duration
	wg       sync.WaitGroup
}

func NewPublisher(producer KafkaProducer) *Publisher {
	return &Publisher{producer: producer, retries: 3, backoff: time.Second}
}

func (p *Publisher) Publish(topic string, key int64, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal kafka event", "topic", topic, "key", key, "error", err)
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for i := 0; i < p.retries; i++ {
			if err := p.producer.Send(context.Background(), topic, key, payload); err == nil {
				return
			}
			time.Sleep(p.backoff * time.Duration(i+1))
		}
		slog.Error("failed to send event after retries", "topic", topic, "key", key)
	}()
}

// Wait blocks until in-flight publishes finish.
func (p *Publisher) Wait() {
	p.wg.Wait()
}

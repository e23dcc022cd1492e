package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nanobananary/studio-api/internal/infrastructure/kafka"
	kafkamocks "github.com/nanobananary/studio-api/internal/infrastructure/kafka/mocks"
	"github.com/stretchr/testify/assert"
)

func TestPublisher_Publish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	producer := kafkamocks.NewMockKafkaProducer(ctrl)
	publisher := kafka.NewPublisher(producer)

	event := map[string]interface{}{"event_type": "credits_consumed", "user_id": 1}
	expected, _ := json.Marshal(event)

	gomock.InOrder(
		producer.EXPECT().Send(gomock.Any(), kafka.TopicCreditTransactions, int64(1), expected).Return(errors.New("broker unavailable")),
		producer.EXPECT().Send(gomock.Any(), kafka.TopicCreditTransactions, int64(1), expected).Return(nil),
	)

	publisher.Publish(kafka.TopicCreditTransactions, 1, event)

	done := make(chan struct{})
	go func() {
		publisher.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publisher did not finish")
	}
}

func TestNoopProducer(t *testing.T) {
	var p kafka.KafkaProducer = kafka.NoopProducer{}
	assert.NoError(t, p.Send(context.Background(), kafka.TopicUsers, 1, []byte("{}")))
	assert.NoError(t, p.Close())
}

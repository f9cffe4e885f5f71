package publisher

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
	"github.com/simplur/cart-events-service/internal/domain"
)

// messageWriter is the slice of kafka.Writer the sink needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaSink mirrors outcome events onto a Kafka topic keyed by session,
// for audit consumers downstream. Writes are async: the mutation path never
// waits on the broker, and a broker outage costs audit records only.
func NewKafkaSink(topic string, brokers ...string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			Async:                  true,
			AllowAutoTopicCreation: true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					log.Printf("kafka sink: delivery failed for %d messages: %v", len(messages), err)
				}
			},
		},
	}
}

type KafkaSink struct {
	writer messageWriter
}

func (s *KafkaSink) Publish(sessionID string, event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("kafka sink: marshal event for session %s: %v", sessionID, err)
		return
	}

	err = s.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(sessionID),
		Value: data,
	})
	if err != nil {
		log.Printf("kafka sink: write event for session %s: %v", sessionID, err)
	}
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

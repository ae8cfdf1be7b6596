// Package broker fans page revalidations out to every replica over Kafka so
// that a write handled by one instance drops the stale pages on all of them.
package broker

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter defines an interface for writing messages to Kafka.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, messages ...kafka.Message) error
	Close() error
}

// KafkaReader defines an interface for reading messages from Kafka.
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConfig holds configuration parameters for Kafka.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	GroupID      string
	WriteTimeout time.Duration
}

func (cfg *KafkaConfig) defaults() {
	if len(cfg.Brokers) == 0 {
		cfg.Brokers = []string{"localhost:9092"}
	}
	if cfg.Topic == "" {
		cfg.Topic = "page-revalidate"
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
}

// NewKafkaWriter returns an async writer; failed deliveries are reported
// through the completion callback rather than to the caller.
func NewKafkaWriter(cfg KafkaConfig, onError func(error)) KafkaWriter {
	cfg.defaults()
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil && onError != nil {
				onError(err)
			}
		},
	}
}

// NewKafkaReader returns a consumer group reader. Every replica must use its
// own group so each one sees every invalidation. Reading starts at the tail:
// invalidations from before startup are irrelevant.
func NewKafkaReader(cfg KafkaConfig) KafkaReader {
	cfg.defaults()
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       1e6,
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})
}

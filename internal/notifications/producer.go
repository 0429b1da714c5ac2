package notifications

import (
	"context"
	"fmt"
	"time"

	"festreg/internal/shared/config"

	"github.com/IBM/sarama"
)

// Producer publishes booking notifications to Kafka.
type Producer interface {
	Publish(ctx context.Context, message *Message) error
	Close() error
}

// KafkaProducer is the sarama-backed Producer.
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaProducer creates a sync producer with idempotent writes, so a
// broker-side retry cannot duplicate a notification.
func NewKafkaProducer(cfg config.KafkaConfig) (*KafkaProducer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Timeout = 10 * time.Second
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	// Hash partitioner keeps per-recipient ordering
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaProducer{
		producer: producer,
		topic:    cfg.NotificationTopic,
	}, nil
}

func (p *KafkaProducer) Publish(ctx context.Context, message *Message) error {
	payload, err := message.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	kafkaMessage := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(message.PartitionKey()),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: message.CreatedAt,
	}

	if _, _, err := p.producer.SendMessage(kafkaMessage); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}

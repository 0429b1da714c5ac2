package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"festreg/internal/shared/config"
	"festreg/pkg/logger"

	"github.com/IBM/sarama"
)

// Consumer drains the notification topic and hands messages to the
// email sender. Delivery failures are logged and the offset is committed
// anyway; a booking is never blocked on email.
type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	topic         string
	sender        EmailSender
	log           *logger.Logger
}

func NewConsumer(cfg config.KafkaConfig, sender EmailSender) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Consumer.Group.Session.Timeout = 30 * time.Second
	saramaConfig.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &Consumer{
		consumerGroup: consumerGroup,
		topic:         cfg.NotificationTopic,
		sender:        sender,
		log:           logger.GetDefault(),
	}, nil
}

// Start consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	go func() {
		for err := range c.consumerGroup.Errors() {
			c.log.Error("notification consumer error", slog.Any("error", err))
		}
	}()

	handler := &consumerGroupHandler{sender: c.sender, log: c.log}

	for {
		if err := c.consumerGroup.Consume(ctx, []string{c.topic}, handler); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("notification consume failed", slog.Any("error", err))
			time.Sleep(time.Second)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) Close() error {
	return c.consumerGroup.Close()
}

type consumerGroupHandler struct {
	sender EmailSender
	log    *logger.Logger
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for kafkaMessage := range claim.Messages() {
		message, err := FromJSON(kafkaMessage.Value)
		if err != nil {
			h.log.Warn("dropping malformed notification",
				slog.Int64("offset", kafkaMessage.Offset),
				slog.Any("error", err),
			)
			session.MarkMessage(kafkaMessage, "")
			continue
		}

		if err := h.sender.Send(session.Context(), message); err != nil {
			h.log.Warn("notification delivery failed",
				slog.String("email", message.Email),
				slog.Any("error", err),
			)
		}

		session.MarkMessage(kafkaMessage, "")
	}
	return nil
}

// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"golang.org/x/time/rate"
)

// Handler processes one message value. Returning an error leaves the message
// uncommitted and schedules a retry.
type Handler func(context context.Context, key, value []byte) error

// ConsumerConfig describes one consumer group subscription.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string

	// RetryInterval is the minimum spacing between two attempts at a failing message.
	RetryInterval time.Duration
	// MaxAttempts bounds the retries of one message. Zero means retry forever.
	MaxAttempts int
}

// Consumer reads a topic within a consumer group.
type Consumer struct {
	reader      *kafka.Reader
	retry       *rate.Limiter
	maxAttempts int
	logger      *slog.Logger
}

// NewConsumer creates a consumer. Nothing is read until [Consumer.Run].
func NewConsumer(config ConsumerConfig, logger *slog.Logger) *Consumer {
	interval := config.RetryInterval
	if interval <= 0 {
		interval = time.Second
	}

	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  config.Brokers,
			Topic:    config.Topic,
			GroupID:  config.GroupID,
			MinBytes: 1,
			MaxBytes: 10e6,
			MaxWait:  time.Second,
		}),
		retry:       rate.NewLimiter(rate.Every(interval), 1),
		maxAttempts: config.MaxAttempts,
		logger:      logger.With(slog.String("topic", config.Topic)),
	}
}

// Run fetches messages until ctx is cancelled, passing each to handle.
//
// A message is committed once handle succeeds, or once it has failed
// MaxAttempts times. It returns nil on cancellation.
func (consumer *Consumer) Run(context context.Context, handle Handler) error {
	for {
		message, err := consumer.reader.FetchMessage(context)
		if err != nil {
			if context.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka: fetch failed: %w", err)
		}

		if err := consumer.process(context, message, handle); err != nil {
			if context.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka: retry wait failed: %w", err)
		}

		if err := consumer.reader.CommitMessages(context, message); err != nil {
			if context.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka: commit failed: %w", err)
		}
	}
}

// process runs handle until it succeeds, the attempts are spent, or ctx ends.
func (consumer *Consumer) process(context context.Context, message kafka.Message, handle Handler) error {
	for attempt := 1; ; attempt++ {
		err := handle(context, message.Key, message.Value)
		if err == nil {
			return nil
		}

		consumer.logger.WarnContext(context, "kafka_message_failed",
			slog.Int("partition", message.Partition),
			slog.Int64("offset", message.Offset),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)

		if consumer.maxAttempts > 0 && attempt >= consumer.maxAttempts {
			consumer.logger.ErrorContext(context, "kafka_message_dropped",
				slog.Int("partition", message.Partition),
				slog.Int64("offset", message.Offset),
			)
			return nil
		}

		if err := consumer.retry.Wait(context); err != nil {
			return err
		}
	}
}

// Close leaves the consumer group and releases connections.
func (consumer *Consumer) Close() error {
	return consumer.reader.Close()
}

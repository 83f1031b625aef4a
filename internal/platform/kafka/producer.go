// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package kafka wraps segmentio/kafka-go for the two event flows of the service.

  - Producer: publishes JSON domain events (address changes).
  - Consumer: reads JSON events from a topic within a consumer group and commits
    each message only after its handler succeeded.

Both are optional. With no brokers configured, the caller wires no-op
implementations instead.
*/
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	writeTimeout = 5 * time.Second
	batchTimeout = 10 * time.Millisecond
)

// Producer publishes JSON-encoded events.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a producer for the given brokers.
//
// The topic is chosen per message, so one producer serves every topic.
func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchTimeout:           batchTimeout,
			WriteTimeout:           writeTimeout,
			AllowAutoTopicCreation: true,
		},
	}
}

// PublishEvent encodes event as JSON and writes it to topic under key.
//
// Messages sharing a key land on the same partition, which keeps one owner's
// events in order.
func (producer *Producer) PublishEvent(context context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now().UTC(),
	}

	if err := producer.writer.WriteMessages(context, message); err != nil {
		return fmt.Errorf("kafka: write to %s failed: %w", topic, err)
	}

	return nil
}

// Close flushes pending messages and releases connections.
func (producer *Producer) Close() error {
	return producer.writer.Close()
}

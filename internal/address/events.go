// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package address

import (
	"context"
	"time"
)

// # Domain Events

// EventType names a change to an owner's collection.
type EventType string

const (
	EventCreated EventType = "address.created"
	EventUpdated EventType = "address.updated"
	EventDeleted EventType = "address.deleted"
)

// Event describes a committed change. Deletions carry ids only.
type Event struct {
	Type       EventType `json:"type"`
	OwnerID    string    `json:"owner_id"`
	AddressIDs []int64   `json:"address_ids"`
	Address    *Address  `json:"address,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher delivers events to downstream consumers.
type EventPublisher interface {
	Publish(context context.Context, event Event) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

// Publish implements [EventPublisher].
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// producer is the subset of the Kafka producer the publisher needs.
type producer interface {
	PublishEvent(context context.Context, topic, key string, event any) error
}

// KafkaPublisher writes events to one topic, keyed by owner so that each
// owner's events stay ordered.
type KafkaPublisher struct {
	producer producer
	topic    string
}

// NewKafkaPublisher constructs a publisher writing to topic.
func NewKafkaPublisher(producer producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Publish implements [EventPublisher].
func (publisher *KafkaPublisher) Publish(context context.Context, event Event) error {
	return publisher.producer.PublishEvent(context, publisher.topic, event.OwnerID, event)
}

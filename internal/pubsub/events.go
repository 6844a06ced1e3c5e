// Package pubsub provides a generic publish/subscribe event system used to
// fan out tag reload notifications and log lines.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// ResolvedEvent is published when a tag resolved successfully.
	ResolvedEvent EventType = "resolved"
	// FailedEvent is published when a tag failed to resolve.
	FailedEvent EventType = "failed"
	// RemovedEvent is published when a tag disappeared from its source.
	RemovedEvent EventType = "removed"
	// LogEvent carries a formatted log line.
	LogEvent EventType = "log"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}

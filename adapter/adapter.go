// Package adapter defines the completion notification boundary.
//
// Adapters publish conversion completion events to downstream systems.
// The runtime owns adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"errors"
	"fmt"
)

// EventType is the type discriminant carried by every published event.
const EventType = "conversion_completed"

// ConversionCompletedEvent is the payload published when a conversion
// finishes, whatever the outcome.
type ConversionCompletedEvent struct {
	EventType   string `json:"event_type"` // always "conversion_completed"
	RequestID   string `json:"request_id"`
	Outcome     string `json:"outcome"` // success, upstream_error, transport_error, canceled
	Heuristic   bool   `json:"heuristic"`
	CodeBytes   int    `json:"code_bytes"`
	EventCount  int64  `json:"event_count"`
	DurationMs  int64  `json:"duration_ms"`
	StoragePath string `json:"storage_path,omitempty"`
	Timestamp   string `json:"timestamp"` // ISO 8601
}

// Validate checks the fields downstream consumers key on. Adapters refuse
// to publish an event that cannot be correlated back to a conversion.
func (e *ConversionCompletedEvent) Validate() error {
	if e.EventType != EventType {
		return fmt.Errorf("event type must be %q, got %q", EventType, e.EventType)
	}
	if e.RequestID == "" {
		return errors.New("completion event requires a request ID")
	}
	if e.Outcome == "" {
		return errors.New("completion event requires an outcome")
	}
	return nil
}

// Adapter publishes conversion completion events to a downstream system.
// Implementations must be safe for single-use per conversion.
type Adapter interface {
	// Publish sends a completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *ConversionCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

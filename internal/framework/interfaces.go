package framework

import (
	"context"
	"time"
)

// MessageSource adapts the work queue for consumption.
type MessageSource interface {
	// Consume pulls one item, blocking until a message arrives or the
	// timeout passes (nil message on timeout).
	Consume(queue string, timeout time.Duration, ttr time.Duration) (*Message, error)

	// Ack confirms and removes an item.
	Ack(queue string, jobID string) error
}

// FailureSink receives soft-failed items for manual handling.
type FailureSink interface {
	Publish(queue string, data []byte, ttl, delay uint32) error
}

// Logger is the logging surface the framework needs.
type Logger interface {
	Debugf(ctx context.Context, format string, args ...interface{})
	Infof(ctx context.Context, format string, args ...interface{})
	Warnf(ctx context.Context, format string, args ...interface{})
	Errorf(ctx context.Context, format string, args ...interface{})
}

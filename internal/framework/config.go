package framework

import "time"

// SubscriberConfig configures queue consumption.
type SubscriberConfig struct {
	QueueName    string
	Concurrency  int
	Timeout      time.Duration // consume long-poll timeout
	TTR          time.Duration // time-to-run before redelivery
	Rate         time.Duration // pull interval
	ErrorBackoff time.Duration
}

// ProcessorConfig configures item processing.
type ProcessorConfig struct {
	QueueName   string
	FailQueue   string // soft failures are published here
	Concurrency int
	BufferSize  int
	Timeout     time.Duration // per-item timeout
}

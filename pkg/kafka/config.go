package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type ProducerOption func(*ProducerConfig)

type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
	BatchSize    int
	BatchTimeout time.Duration
	Async        bool
	Registerer   prometheus.Registerer
}

func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) { c.Brokers = brokers }
}

// WithCompression accepts gzip, snappy, lz4, zstd or none.
func WithCompression(compression string) ProducerOption {
	return func(c *ProducerConfig) { c.Compression = compression }
}

// WithRequiredAcks sets required acknowledgements (-1 = all).
func WithRequiredAcks(acks int) ProducerOption {
	return func(c *ProducerConfig) { c.RequiredAcks = acks }
}

func WithMaxAttempts(n int) ProducerOption {
	return func(c *ProducerConfig) { c.MaxAttempts = n }
}

func WithBatching(size int, timeout time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.BatchSize = size
		c.BatchTimeout = timeout
	}
}

func WithWriteTimeout(d time.Duration) ProducerOption {
	return func(c *ProducerConfig) { c.WriteTimeout = d }
}

// WithAsync toggles fire-and-forget writes.
func WithAsync(async bool) ProducerOption {
	return func(c *ProducerConfig) { c.Async = async }
}

func WithProducerMetrics(reg prometheus.Registerer) ProducerOption {
	return func(c *ProducerConfig) { c.Registerer = reg }
}

type ConsumerOption func(*ConsumerConfig)

type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	WorkerCount int
	BufferSize  int
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int
}

func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) { c.Brokers = brokers }
}

func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) { c.GroupID = groupID }
}

func WithConsumerWorkers(count int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if count > 0 {
			c.WorkerCount = count
		}
	}
}

func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

// WithConsumerRetry configures retry attempts and the backoff range.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = max
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithConsumerDLQ routes messages that exhaust their retries to topic.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) { c.DLQTopic = topic }
}

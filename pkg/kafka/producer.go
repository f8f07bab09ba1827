package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON (or raw byte) payloads to arbitrary topics.
type Producer struct {
	writer  messageWriter
	comp    string
	metrics *producerMetrics
}

// Message is a single keyed payload for PublishBatch.
type Message struct {
	Key   []byte
	Value interface{}
}

func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		RequiredAcks: -1,
		Compression:  "gzip",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: brokers are required")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            parseCompression(cfg.Compression),
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		Async:                  cfg.Async,
		AllowAutoTopicCreation: true,
	}
	return newProducer(writer, cfg.Compression, cfg.Registerer), nil
}

func newProducer(w messageWriter, comp string, reg prometheus.Registerer) *Producer {
	return &Producer{writer: w, comp: comp, metrics: newProducerMetrics(reg)}
}

func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Key: key, Value: value}})
}

// PublishMessage publishes an unkeyed payload.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.Publish(ctx, topic, nil, payload)
}

func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}
	start := time.Now()
	now := start.UTC()
	msgs := make([]kafka.Message, 0, len(messages))
	var size int
	for _, m := range messages {
		v, err := encode(m.Value)
		if err != nil {
			return err
		}
		size += len(v)
		msgs = append(msgs, kafka.Message{Topic: topic, Key: m.Key, Value: v, Time: now})
	}

	err := p.writer.WriteMessages(ctx, msgs...)
	p.metrics.observe(topic, p.comp, size, len(msgs), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal value: %w", err)
		}
		return b, nil
	}
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	case "none", "":
		return 0
	default:
		return kafka.Gzip
	}
}

type producerMetrics struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	if reg == nil {
		return nil
	}
	return &producerMetrics{
		messages: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flarecast_kafka_producer_messages_total",
			Help: "Messages published to Kafka.",
		}, []string{"topic", "compression", "result"})),
		bytes: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flarecast_kafka_producer_bytes_total",
			Help: "Payload bytes published to Kafka.",
		}, []string{"topic"})),
		latency: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flarecast_kafka_producer_publish_seconds",
			Help:    "Publish latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"})),
	}
}

// register reuses an already registered collector so two producers can share a registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func (m *producerMetrics) observe(topic, comp string, size, count int, dur time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messages.WithLabelValues(topic, comp, result).Add(float64(count))
	m.bytes.WithLabelValues(topic).Add(float64(size))
	m.latency.WithLabelValues(topic).Observe(dur.Seconds())
}

package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"FlareCast/pkg/logger"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// PermanentError marks a failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer fans messages from one reader per topic out to a worker pool.
type Consumer struct {
	cfg      *ConsumerConfig
	log      *logger.Logger
	readers  map[string]messageReader
	handlers map[string]MessageHandler
	hook     ConsumerHook
	dlq      messageWriter
	newRdr   func(topic string) messageReader
	offsets  *offsetTracker

	msgs     chan kafka.Message
	stop     chan struct{}
	stopOnce sync.Once
	readWg   sync.WaitGroup
	workWg   sync.WaitGroup
}

func NewConsumer(log *logger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "flarecast",
		WorkerCount: 1,
		BufferSize:  16,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: brokers are required")
	}
	if log == nil {
		log = logger.Nop()
	}

	c := newConsumer(cfg, log)
	c.newRdr = func(topic string) messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    topic,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		})
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		}
	}
	return c, nil
}

func newConsumer(cfg *ConsumerConfig, log *logger.Logger) *Consumer {
	return &Consumer{
		cfg:      cfg,
		log:      log.With(logger.String("component", "kafka_consumer")),
		readers:  make(map[string]messageReader),
		handlers: make(map[string]MessageHandler),
		hook:     NoopHook{},
		offsets:  newOffsetTracker(),
		msgs:     make(chan kafka.Message, cfg.BufferSize),
		stop:     make(chan struct{}),
	}
}

// RegisterHandler must be called before Start. A second handler for the same topic is ignored.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	if _, ok := c.handlers[h.Topic()]; ok {
		c.log.Warn("handler already registered", logger.String("topic", h.Topic()))
		return
	}
	c.handlers[h.Topic()] = h
}

func (c *Consumer) SetHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return errors.New("kafka: no handlers registered")
	}
	for topic := range c.handlers {
		c.readers[topic] = c.newRdr(topic)
	}
	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.workWg.Add(1)
		go c.worker()
	}
	for topic, r := range c.readers {
		c.readWg.Add(1)
		go c.read(topic, r)
	}
	c.log.Info("kafka consumer started",
		logger.Int("workers", c.cfg.WorkerCount),
		logger.Int("topics", len(c.readers)),
		logger.String("group", c.cfg.GroupID))
	return nil
}

// Stop drains in-flight messages until ctx expires.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stop)
		err = waitGroup(ctx, &c.readWg)
		if err == nil {
			close(c.msgs)
			err = waitGroup(ctx, &c.workWg)
		}
		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.log.Warn("close reader", logger.String("topic", topic), logger.Error(cerr))
			}
		}
		if c.dlq != nil {
			_ = c.dlq.Close()
		}
		c.log.Info("kafka consumer stopped")
	})
	return err
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting for consumer: %w", ctx.Err())
	case <-done:
		return nil
	}
}

func (c *Consumer) read(topic string, r messageReader) {
	defer c.readWg.Done()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-c.stop
		cancel()
	}()

	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("fetch failed", logger.String("topic", topic), logger.Error(err))
			if !c.sleep(c.cfg.BackoffMin) {
				return
			}
			continue
		}
		c.offsets.track(msg)
		select {
		case c.msgs <- msg:
		case <-c.stop:
			return
		}
	}
}

func (c *Consumer) worker() {
	defer c.workWg.Done()
	for msg := range c.msgs {
		c.process(msg)
	}
}

func (c *Consumer) process(msg kafka.Message) {
	h, ok := c.handlers[msg.Topic]
	if !ok {
		c.offsets.finish(msg, true, c.commit)
		return
	}
	ctx := WithStartTime(context.Background(), time.Now())
	ctx = WithTraceID(ctx, ExtractTraceID(msg))

	err := c.handleWithRetry(ctx, h, msg)
	if err != nil {
		c.log.Error("message failed",
			logger.String("topic", msg.Topic),
			logger.Int("partition", msg.Partition),
			logger.Int64("offset", msg.Offset),
			logger.Bool("permanent", IsPermanent(err)),
			logger.Error(err))
		if !c.deadLetter(ctx, msg, err) {
			// nothing at or after this offset is committed, so it is redelivered after restart
			c.offsets.finish(msg, false, c.commit)
			c.log.Warn("partition held for redelivery",
				logger.String("topic", msg.Topic),
				logger.Int("partition", msg.Partition),
				logger.Int64("offset", msg.Offset))
			return
		}
	}
	c.offsets.finish(msg, true, c.commit)
}

func (c *Consumer) commit(msg kafka.Message) {
	r := c.readers[msg.Topic]
	if r == nil {
		return
	}
	if err := r.CommitMessages(context.Background(), msg); err != nil {
		c.log.Warn("commit failed", logger.String("topic", msg.Topic), logger.Error(err))
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, h MessageHandler, msg kafka.Message) (err error) {
	for attempt := 1; ; attempt++ {
		err = c.handleOnce(ctx, h, msg)
		if err == nil || IsPermanent(err) || attempt > c.cfg.RetryMax {
			return err
		}
		c.hook.OnError(ctx, msg.Topic, msg, msg.Value, err)
		if !c.sleep(backoff(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)) {
			return err
		}
	}
}

func (c *Consumer) handleOnce(ctx context.Context, h MessageHandler, msg kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Permanent(fmt.Errorf("handler panic: %v", r))
		}
	}()
	hctx, hmsg, data, err := c.hook.BeforeHandle(ctx, msg.Topic, msg, msg.Value)
	if err != nil {
		return err
	}
	err = h.Handle(hctx, data)
	c.hook.AfterHandle(hctx, msg.Topic, hmsg, data, err)
	return err
}

// deadLetter reports whether the message may be committed.
func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) bool {
	if c.dlq == nil || c.cfg.DLQTopic == "" {
		return IsPermanent(cause)
	}
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Topic: c.cfg.DLQTopic,
		Key:   msg.Key,
		Value: msg.Value,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "source_topic", Value: []byte(msg.Topic)},
			{Key: "error", Value: []byte(cause.Error())},
		},
	})
	if err != nil {
		c.log.Error("dlq write failed", logger.String("dlq", c.cfg.DLQTopic), logger.Error(err))
		return false
	}
	return true
}

func (c *Consumer) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.stop:
		return false
	}
}

func backoff(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := min << uint(attempt-1)
	if d > max || d <= 0 {
		d = max
	}
	// up to 50% jitter
	if half := int64(d) / 2; half > 0 {
		d -= time.Duration(rand.Int63n(half))
	}
	return d
}

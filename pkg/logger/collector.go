package logger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// Publisher ships aggregated log batches somewhere (Kafka in production).
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	Interval  time.Duration // flush period
	MaxUnique int           // flush early once this many distinct entries are buffered
	Topic     string
	Service   string
	Publisher Publisher
}

type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogBatch is the payload published on every flush.
type LogBatch struct {
	Service   string               `json:"service"`
	FlushedAt time.Time            `json:"flushed_at"`
	Entries   []AggregatedLogEntry `json:"entries"`
}

// LogCollector deduplicates error logs by (level, message, fields, caller)
// and publishes counts periodically.
type LogCollector struct {
	cfg     CollectionConfig
	mu      sync.Mutex
	entries map[string]*AggregatedLogEntry
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func NewLogCollector(cfg *CollectionConfig) *LogCollector {
	c := &LogCollector{
		cfg:     *cfg,
		entries: make(map[string]*AggregatedLogEntry),
		stop:    make(chan struct{}),
	}
	if c.cfg.Interval <= 0 {
		c.cfg.Interval = 30 * time.Second
	}
	if c.cfg.MaxUnique <= 0 {
		c.cfg.MaxUnique = 100
	}

	c.wg.Add(1)
	go c.loop()
	return c
}

func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now().UTC()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.entries[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}

	if len(c.entries) >= c.cfg.MaxUnique {
		c.flushLocked()
	}
}

// Pending reports how many distinct entries are buffered.
func (c *LogCollector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func entryKey(level, message string, fields map[string]interface{}, caller string) string {
	// json.Marshal sorts map keys, so equal field sets hash equally.
	raw, _ := json.Marshal(struct {
		L string                 `json:"l"`
		M string                 `json:"m"`
		F map[string]interface{} `json:"f"`
		C string                 `json:"c"`
	}{level, message, fields, caller})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func (c *LogCollector) loop() {
	defer c.wg.Done()

	t := time.NewTicker(c.cfg.Interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			c.mu.Lock()
			c.flushLocked()
			c.mu.Unlock()
		case <-c.stop:
			c.mu.Lock()
			batch := c.drainLocked()
			c.mu.Unlock()
			if batch != nil {
				c.publish(batch)
			}
			return
		}
	}
}

func (c *LogCollector) drainLocked() *LogBatch {
	if len(c.entries) == 0 {
		return nil
	}
	batch := &LogBatch{Service: c.cfg.Service, FlushedAt: time.Now().UTC()}
	for _, e := range c.entries {
		batch.Entries = append(batch.Entries, *e)
	}
	sort.Slice(batch.Entries, func(i, j int) bool {
		return batch.Entries[i].FirstSeen.Before(batch.Entries[j].FirstSeen)
	})
	c.entries = make(map[string]*AggregatedLogEntry)
	return batch
}

func (c *LogCollector) flushLocked() {
	if batch := c.drainLocked(); batch != nil {
		go c.publish(batch)
	}
}

func (c *LogCollector) publish(batch *LogBatch) {
	if c.cfg.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, batch); err != nil {
		// cannot log through the logger here without recursing into the collector
		fmt.Fprintf(os.Stderr, "log collector: publish %d entries: %v\n", len(batch.Entries), err)
	}
}

// Close stops the flush loop and publishes what is left synchronously.
func (c *LogCollector) Close() {
	c.once.Do(func() {
		close(c.stop)
		c.wg.Wait()
	})
}

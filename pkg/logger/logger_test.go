package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches []*LogBatch
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.(*LogBatch))
	return nil
}

func TestLoggerWritesTypedFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, zerolog.DebugLevel).With(String("stage", "classifier"))

	log.Info("scored", Float64("probability", 0.85), Bool("anomaly", true), Int("features", 23))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "scored", got["message"])
	assert.Equal(t, "classifier", got["stage"])
	assert.Equal(t, 0.85, got["probability"])
	assert.Equal(t, true, got["anomaly"])
	assert.Equal(t, float64(23), got["features"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, zerolog.WarnLevel)

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

func TestCollectorDeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	log := Nop()
	log.AddCollector(&CollectionConfig{Interval: time.Hour, MaxUnique: 10, Topic: "logs", Service: "test", Publisher: pub})

	for i := 0; i < 3; i++ {
		log.Error("inference failed", Error(errors.New("boom")))
	}
	log.Error("feed down", String("feed", "donki"))
	assert.Equal(t, 2, log.collector.Pending())

	log.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Equal(t, "logs", pub.topic)
	assert.Equal(t, "test", pub.batches[0].Service)
	require.Len(t, pub.batches[0].Entries, 2)
	counts := map[string]int{}
	for _, e := range pub.batches[0].Entries {
		counts[e.Message] = e.Count
	}
	assert.Equal(t, map[string]int{"inference failed": 3, "feed down": 1}, counts)
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{Interval: time.Hour, MaxUnique: 2, Publisher: pub})
	defer c.Close()

	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")

	assert.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.batches) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Zero(t, c.Pending())
}

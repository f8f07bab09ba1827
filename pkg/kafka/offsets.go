package kafka

import (
	"sync"

	"github.com/segmentio/kafka-go"
)

type partitionKey struct {
	topic     string
	partition int
}

// partitionOffsets keeps fetched offsets in fetch order. Group commits are
// cumulative, so only the longest finished prefix may be committed, and a
// message held for redelivery stops commits for the partition until restart.
type partitionOffsets struct {
	mu       sync.Mutex
	pending  []int64
	finished map[int64]kafka.Message
	held     bool
}

type offsetTracker struct {
	mu    sync.Mutex
	parts map[partitionKey]*partitionOffsets
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{parts: make(map[partitionKey]*partitionOffsets)}
}

func (t *offsetTracker) partition(msg kafka.Message) *partitionOffsets {
	key := partitionKey{topic: msg.Topic, partition: msg.Partition}
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.parts[key]
	if !ok {
		p = &partitionOffsets{finished: make(map[int64]kafka.Message)}
		t.parts[key] = p
	}
	return p
}

// track must be called in fetch order, before the message reaches a worker.
func (t *offsetTracker) track(msg kafka.Message) {
	p := t.partition(msg)
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.held {
		p.pending = append(p.pending, msg.Offset)
	}
}

// finish marks msg done. commit is called, under the partition lock, with the
// newest message whose predecessors are all done. ok=false holds the partition.
func (t *offsetTracker) finish(msg kafka.Message, ok bool, commit func(kafka.Message)) {
	p := t.partition(msg)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.held {
		return
	}
	if !ok {
		p.held = true
		p.pending = nil
		p.finished = nil
		return
	}
	p.finished[msg.Offset] = msg

	var (
		last  kafka.Message
		moved bool
	)
	for len(p.pending) > 0 {
		m, done := p.finished[p.pending[0]]
		if !done {
			break
		}
		delete(p.finished, p.pending[0])
		p.pending = p.pending[1:]
		last, moved = m, true
	}
	if moved {
		commit(last)
	}
}

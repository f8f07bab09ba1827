package repository

import (
	"context"
	"sync"

	"FlareCast/internal/domain/models"
	"FlareCast/internal/domain/repository"
)

// MemoryStore keeps the last N predictions in a ring buffer.
type MemoryStore struct {
	mu   sync.RWMutex
	buf  []*models.PredictionResult
	next int
	full bool
}

func NewMemoryStore(capacity int) repository.PredictionStore {
	if capacity <= 0 {
		capacity = 500
	}
	return &MemoryStore{buf: make([]*models.PredictionResult, capacity)}
}

func (s *MemoryStore) Init(context.Context) error { return nil }

func (s *MemoryStore) Store(_ context.Context, p *models.PredictionResult) error {
	if p == nil {
		return nil
	}
	cp := *p
	s.mu.Lock()
	s.buf[s.next] = &cp
	s.next = (s.next + 1) % len(s.buf)
	if s.next == 0 {
		s.full = true
	}
	s.mu.Unlock()
	return nil
}

// Recent returns newest first.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]*models.PredictionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	size := s.next
	if s.full {
		size = len(s.buf)
	}
	if limit > size {
		limit = size
	}
	if limit <= 0 {
		return []*models.PredictionResult{}, nil
	}
	out := make([]*models.PredictionResult, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.next - i + len(s.buf)) % len(s.buf)
		cp := *s.buf[idx]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) Health(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

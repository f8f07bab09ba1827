package repository

import (
	"context"
	"time"

	"FlareCast/internal/domain/models"
)

// PredictionStore keeps a history of served predictions.
type PredictionStore interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, p *models.PredictionResult) error
	Recent(ctx context.Context, limit int) ([]*models.PredictionResult, error)
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher fans prediction events out to downstream consumers.
type EventPublisher interface {
	PublishPrediction(ctx context.Context, p *models.PredictionResult) error
	Close() error
}

type Metrics interface {
	RecordPrediction(class models.FlareClass, provenance models.Provenance)
	RecordAnomalyGate(invoked bool)
	RecordFeedFallback(feed string)
	RecordError(kind string)
	RecordLatency(op string, d time.Duration)
}

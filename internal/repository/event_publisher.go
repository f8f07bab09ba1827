package repository

import (
	"context"

	"FlareCast/internal/domain/models"
	"FlareCast/internal/domain/repository"
	pkgkafka "FlareCast/pkg/kafka"
)

// KafkaPublisher emits every served prediction keyed by its id.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishPrediction(ctx context.Context, r *models.PredictionResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.ID), r)
}

// Close is a no-op; the producer is shared with the log collector and released by its owner.
func (p *KafkaPublisher) Close() error { return nil }

type NoopPublisher struct{}

func (NoopPublisher) PublishPrediction(context.Context, *models.PredictionResult) error { return nil }
func (NoopPublisher) Close() error                                                      { return nil }

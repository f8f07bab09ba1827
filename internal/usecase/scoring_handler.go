package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"FlareCast/internal/domain/models"
	"FlareCast/internal/pipeline"
	pkgkafka "FlareCast/pkg/kafka"
)

// ScoringHandler scores feature vectors arriving on Kafka. Results leave
// through the same path as HTTP predictions.
type ScoringHandler struct {
	topic string
	uc    *PredictionUseCase
}

func NewScoringHandler(topic string, uc *PredictionUseCase) *ScoringHandler {
	return &ScoringHandler{topic: topic, uc: uc}
}

func (h *ScoringHandler) Topic() string { return h.topic }

func (h *ScoringHandler) Handle(ctx context.Context, b []byte) error {
	var msg models.ScoringMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		return pkgkafka.Permanent(fmt.Errorf("decode scoring message: %w", err))
	}
	if len(msg.Features) == 0 {
		return pkgkafka.Permanent(errors.New("scoring message has no features"))
	}
	if _, err := h.uc.predict(ctx, msg.ID, msg.Features); err != nil {
		if errors.Is(err, pipeline.ErrFeatureCountMismatch) {
			return pkgkafka.Permanent(err)
		}
		return err
	}
	return nil
}

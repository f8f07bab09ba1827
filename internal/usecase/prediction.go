package usecase

import (
	"context"
	"errors"
	"time"

	"FlareCast/internal/domain/models"
	"FlareCast/internal/domain/repository"
	"FlareCast/internal/pipeline"
	"FlareCast/pkg/logger"
	"FlareCast/pkg/tracker"
)

// Stream event kinds.
const (
	EventPrediction = "prediction"
	EventXRayFlux   = "xray_flux"
)

// Broadcaster pushes events to connected stream clients.
type Broadcaster interface {
	Broadcast(kind string, payload interface{})
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(string, interface{}) {}

// PredictionUseCase runs the pipeline and fans each result out to history,
// the event topic and the live stream. Only the pipeline can fail a request.
type PredictionUseCase struct {
	predictor *pipeline.Predictor
	store     repository.PredictionStore
	events    repository.EventPublisher
	metrics   repository.Metrics
	stream    Broadcaster
	log       *logger.Logger
}

func NewPredictionUseCase(
	predictor *pipeline.Predictor,
	store repository.PredictionStore,
	events repository.EventPublisher,
	metrics repository.Metrics,
	stream Broadcaster,
	log *logger.Logger,
) *PredictionUseCase {
	if stream == nil {
		stream = noopBroadcaster{}
	}
	return &PredictionUseCase{
		predictor: predictor,
		store:     store,
		events:    events,
		metrics:   metrics,
		stream:    stream,
		log:       log.With(logger.String("component", "prediction")),
	}
}

func (u *PredictionUseCase) Predict(ctx context.Context, features []float64) (models.PredictionResult, error) {
	return u.predict(ctx, "", features)
}

// predict overrides the generated id when the caller supplied one.
func (u *PredictionUseCase) predict(ctx context.Context, id string, features []float64) (models.PredictionResult, error) {
	start := time.Now()
	res, err := u.predictor.Predict(ctx, models.FeatureVector(features))
	u.metrics.RecordLatency("predict", time.Since(start))
	if err != nil {
		if errors.Is(err, pipeline.ErrFeatureCountMismatch) {
			u.metrics.RecordError("feature_count")
		}
		return res, err
	}
	if id != "" {
		res.ID = id
	}
	u.metrics.RecordPrediction(res.FlareClass, res.Provenance)

	if err := u.store.Store(ctx, &res); err != nil {
		u.metrics.RecordError("store")
		u.log.Warn("store prediction", logger.String("id", res.ID), logger.Error(err))
	}
	if err := u.events.PublishPrediction(ctx, &res); err != nil {
		u.metrics.RecordError("publish")
		u.log.Warn("publish prediction", logger.String("id", res.ID), logger.Error(err))
	}
	u.stream.Broadcast(EventPrediction, res)

	u.log.Debug("prediction served",
		logger.String("id", res.ID),
		logger.String("class", string(res.FlareClass)),
		logger.Float64("probability", res.Probability),
		logger.String("provenance", string(res.Provenance)),
		logger.Duration("took", time.Since(start)))
	return res, nil
}

func (u *PredictionUseCase) Recent(ctx context.Context, limit int) ([]*models.PredictionResult, error) {
	return u.store.Recent(ctx, limit)
}

// FeatureNames is the order callers must send features in.
func (u *PredictionUseCase) FeatureNames() []string {
	return u.predictor.FeatureNames()
}

// NewFailureHook reports swallowed inference failures.
func NewFailureHook(log *logger.Logger, t tracker.Tracker, m repository.Metrics) pipeline.FailureHook {
	return func(ctx context.Context, err error) {
		stage := "inference"
		var ie *pipeline.InferenceError
		if errors.As(err, &ie) {
			stage = ie.Stage
		}
		m.RecordError("inference")
		log.Error("inference failed, serving degraded result", logger.String("stage", stage), logger.Error(err))
		t.CaptureError(ctx, err, map[string]string{"stage": stage})
	}
}

// NewGateHook counts how often stage 2 runs.
func NewGateHook(m repository.Metrics) pipeline.GateHook {
	return m.RecordAnomalyGate
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"FlareCast/internal/domain/models"
)

// FailureHook observes inference failures that were turned into degraded results.
type FailureHook func(ctx context.Context, err error)

// GateHook observes each stage-2 decision: invoked is false when the gate
// was closed or no anomaly model is loaded.
type GateHook func(invoked bool)

type Option func(*Predictor)

func WithFailureHook(h FailureHook) Option {
	return func(p *Predictor) { p.onFailure = h }
}

func WithGateHook(h GateHook) Option {
	return func(p *Predictor) { p.onGate = h }
}

// WithRandom replaces the source of mock probabilities. f must return values in [0,1].
func WithRandom(f func() float64) Option {
	return func(p *Predictor) { p.random = f }
}

func WithClock(now func() time.Time) Option {
	return func(p *Predictor) { p.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(p *Predictor) { p.newID = gen }
}

// Predictor runs preprocess, stage 1, the optional stage-2 gate and the class
// mapper. It holds no mutable state and is safe for concurrent use.
type Predictor struct {
	cfg       PipelineConfig
	pre       *Preprocessor
	modelUsed string

	onFailure FailureHook
	onGate    GateHook
	random    func() float64
	now       func() time.Time
	newID     func() string
}

func NewPredictor(cfg PipelineConfig, opts ...Option) (*Predictor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Predictor{
		cfg:       cfg,
		pre:       NewPreprocessor(cfg.FeatureNames, cfg.Ranges),
		modelUsed: cfg.ModelUsed(),
		onFailure: func(context.Context, error) {},
		onGate:    func(bool) {},
		random:    rand.Float64,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Predictor) Config() PipelineConfig { return p.cfg }

func (p *Predictor) FeatureNames() []string { return p.pre.FeatureNames() }

// Predict never fails except for a feature-count mismatch. Without a stage-1
// model it returns a mock result; on inference errors a degraded one.
func (p *Predictor) Predict(ctx context.Context, raw models.FeatureVector) (models.PredictionResult, error) {
	if p.cfg.Classifier == nil {
		return p.mock(), nil
	}

	// the only preprocessing error is a count mismatch, which belongs to the caller
	clean, err := p.pre.Preprocess(raw)
	if err != nil {
		return models.PredictionResult{}, err
	}

	res, err := p.infer(ctx, clean)
	if err != nil {
		return p.degraded(ctx, err), nil
	}
	return res, nil
}

func (p *Predictor) infer(ctx context.Context, clean models.FeatureVector) (res models.PredictionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InferenceError{Stage: "inference", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	sig, err := p.cfg.Classifier.Significance(ctx, clean)
	if err != nil {
		return res, &InferenceError{Stage: "significance", Err: err}
	}
	if math.IsNaN(sig) || sig < 0 || sig > 1 {
		return res, &InferenceError{Stage: "significance", Err: fmt.Errorf("probability %v outside [0,1]", sig)}
	}

	var (
		isAnomaly bool
		score     *float64
	)
	if sig > SignificanceGate && p.cfg.Anomaly != nil {
		p.onGate(true)
		s, err := p.cfg.Anomaly.Score(ctx, clean)
		if err != nil {
			return res, &InferenceError{Stage: "anomaly", Err: err}
		}
		if math.IsNaN(s) {
			return res, &InferenceError{Stage: "anomaly", Err: errors.New("score is NaN")}
		}
		isAnomaly = s < AnomalyScoreCutoff
		score = &s
	} else {
		p.onGate(false)
	}

	res = p.result(sig, isAnomaly, models.ProvenanceConfident, "")
	res.AnomalyScore = score
	return res, nil
}

func (p *Predictor) mock() models.PredictionResult {
	prob := p.random()
	return p.result(prob, false, models.ProvenanceMock, ErrModelUnavailable.Error())
}

func (p *Predictor) degraded(ctx context.Context, err error) models.PredictionResult {
	p.onFailure(ctx, err)
	return p.result(DegradedSignificance, false, models.ProvenanceDegraded, err.Error())
}

func (p *Predictor) result(prob float64, isAnomaly bool, prov models.Provenance, reason string) models.PredictionResult {
	used := p.modelUsed
	if prov == models.ProvenanceMock {
		used = "mock"
	}
	return models.PredictionResult{
		ID:          p.newID(),
		Probability: prob,
		FlareClass:  MapClass(prob, isAnomaly),
		IsAnomaly:   isAnomaly,
		Confidence:  Band(prob),
		Provenance:  prov,
		Reason:      reason,
		ModelUsed:   used,
		Timestamp:   p.now().UTC(),
	}
}

package model

import (
	"context"
	"fmt"

	"FlareCast/internal/domain/models"
	domsvc "FlareCast/internal/domain/service"
)

var (
	_ domsvc.SignificanceClassifier = (*Classifier)(nil)
	_ domsvc.AnomalyScorer          = (*AnomalyScorer)(nil)
)

func toFloat32(v models.FeatureVector) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// Classifier reads the positive-class column of a probability output.
type Classifier struct {
	runner   Runner
	positive int
	name     string
}

func NewClassifier(r Runner, positive int, name string) *Classifier {
	return &Classifier{runner: r, positive: positive, name: name}
}

func (c *Classifier) Significance(ctx context.Context, features models.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	probs, err := c.runner.Run(toFloat32(features))
	if err != nil {
		return 0, err
	}
	if c.positive >= len(probs) {
		return 0, fmt.Errorf("classifier returned %d probabilities, positive index is %d", len(probs), c.positive)
	}
	return float64(probs[c.positive]), nil
}

func (c *Classifier) Name() string { return c.name }

// AnomalyScorer returns the decision-function score of an isolation forest.
type AnomalyScorer struct {
	runner Runner
	name   string
}

func NewAnomalyScorer(r Runner, name string) *AnomalyScorer {
	return &AnomalyScorer{runner: r, name: name}
}

func (a *AnomalyScorer) Score(ctx context.Context, features models.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	out, err := a.runner.Run(toFloat32(features))
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("anomaly model returned no score")
	}
	return float64(out[0]), nil
}

func (a *AnomalyScorer) Name() string { return a.name }

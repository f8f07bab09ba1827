package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"FlareCast/internal/domain/models"
	"FlareCast/internal/domain/service"
)

// PipelineConfig is everything the predictor needs, assembled once at startup.
// A nil Classifier puts the predictor in mock mode; a nil Anomaly disables stage 2.
type PipelineConfig struct {
	FeatureNames  []string
	Ranges        RangeTable
	Classifier    service.SignificanceClassifier
	Anomaly       service.AnomalyScorer
	Metrics       *models.ModelMetrics
	SchemaVersion string
}

// DefaultConfig has the stock feature order and ranges and no models.
func DefaultConfig() PipelineConfig {
	return PipelineConfig{
		FeatureNames: DefaultFeatureNames(),
		Ranges:       DefaultRanges(),
	}
}

func (c PipelineConfig) Validate() error {
	if c.Classifier != nil && len(c.FeatureNames) == 0 {
		return errors.New("pipeline: classifier loaded without feature names")
	}
	seen := make(map[string]struct{}, len(c.FeatureNames))
	for _, n := range c.FeatureNames {
		if _, dup := seen[n]; dup {
			return fmt.Errorf("pipeline: duplicate feature name %q", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

func (c PipelineConfig) ClassifierLoaded() bool { return c.Classifier != nil }
func (c PipelineConfig) AnomalyLoaded() bool    { return c.Anomaly != nil }

// ModelUsed describes the active model stack for API responses.
func (c PipelineConfig) ModelUsed() string {
	if c.Classifier == nil {
		return "mock"
	}
	parts := []string{c.Classifier.Name()}
	if c.Anomaly != nil {
		parts = append(parts, c.Anomaly.Name())
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts, " + ") + " Ensemble"
}

package models

import "time"

// FeatureVector is one observation of HMI active-region measurements in
// training-time order.
type FeatureVector []float64

// Clone returns an independent copy.
func (v FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(v))
	copy(out, v)
	return out
}

type FlareClass string

const (
	ClassX             FlareClass = "X-Class"
	ClassM             FlareClass = "M-Class"
	ClassC             FlareClass = "C-Class"
	ClassInsignificant FlareClass = "Insignificant (A/B-class)"
)

type ConfidenceBand string

const (
	BandHigh   ConfidenceBand = "high"
	BandMedium ConfidenceBand = "medium"
	BandLow    ConfidenceBand = "low"
)

// Provenance tells callers whether a result came from the trained models.
type Provenance string

const (
	ProvenanceConfident Provenance = "confident"
	ProvenanceDegraded  Provenance = "degraded"
	ProvenanceMock      Provenance = "mock"
)

type PredictionResult struct {
	ID           string         `json:"id"`
	Probability  float64        `json:"probability"`
	FlareClass   FlareClass     `json:"flare_class"`
	IsAnomaly    bool           `json:"is_anomaly"`
	AnomalyScore *float64       `json:"anomaly_score,omitempty"` // nil when stage 2 did not run
	Confidence   ConfidenceBand `json:"confidence"`
	Provenance   Provenance     `json:"provenance"`
	Reason       string         `json:"reason,omitempty"` // set for degraded and mock results
	ModelUsed    string         `json:"model_used"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Confident reports whether the result reflects a real model inference.
func (r PredictionResult) Confident() bool {
	return r.Provenance == ProvenanceConfident
}

// ModelMetrics is the training-time evaluation record shipped with the models.
type ModelMetrics struct {
	Accuracy         float64 `json:"accuracy"`
	Precision        float64 `json:"precision"`
	Recall           float64 `json:"recall"`
	F1Score          float64 `json:"f1_score"`
	AUCROC           float64 `json:"auc_roc"`
	TrainingDate     string  `json:"training_date"`
	FeaturesUsed     int     `json:"features_used"`
	ModelType        string  `json:"model_type"`
	SignificantFlare int     `json:"significant_flares"`
}

// ModelPerformance wraps the metrics record; Metrics is nil when none shipped.
type ModelPerformance struct {
	*ModelMetrics
	Status string `json:"status"`
}

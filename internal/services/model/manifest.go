package model

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// SupportedSchemaVersion is the artifact layout this build understands.
const SupportedSchemaVersion = "2"

var ErrSchemaMismatch = errors.New("model schema mismatch")

// Manifest is written next to the model files by the training job.
type Manifest struct {
	SchemaVersion string `json:"schema_version"`
	FeatureHash   string `json:"feature_hash"`
	FeatureCount  int    `json:"feature_count"`
	Classifier    string `json:"classifier,omitempty"`
	Anomaly       string `json:"anomaly,omitempty"`
	TrainedAt     string `json:"trained_at,omitempty"`
}

// FeatureHash fingerprints an ordered feature list.
func FeatureHash(names []string) string {
	sum := sha256.Sum256([]byte(strings.Join(names, "\n")))
	return hex.EncodeToString(sum[:])
}

// Check verifies the manifest against the feature list actually on disk.
func (m Manifest) Check(names []string) error {
	if m.SchemaVersion != SupportedSchemaVersion {
		return fmt.Errorf("%w: schema version %q, want %q", ErrSchemaMismatch, m.SchemaVersion, SupportedSchemaVersion)
	}
	if m.FeatureCount != 0 && m.FeatureCount != len(names) {
		return fmt.Errorf("%w: manifest lists %d features, feature file has %d", ErrSchemaMismatch, m.FeatureCount, len(names))
	}
	if got := FeatureHash(names); !strings.EqualFold(m.FeatureHash, got) {
		return fmt.Errorf("%w: feature hash %s does not match %s", ErrSchemaMismatch, m.FeatureHash, got)
	}
	return nil
}

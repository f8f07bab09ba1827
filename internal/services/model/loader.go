package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"FlareCast/internal/domain/models"
	"FlareCast/internal/pipeline"
	"FlareCast/pkg/logger"
)

type Config struct {
	Dir               string
	ClassifierFile    string
	AnomalyFile       string
	FeatureNamesFile  string
	MetricsFile       string
	ManifestFile      string
	RequireManifest   bool
	InputName         string
	ProbabilityOutput string
	ScoreOutput       string
	PositiveIndex     int
	ClassifierName    string
	AnomalyName       string
}

func DefaultConfig() Config {
	return Config{
		Dir:               "models",
		ClassifierFile:    "classifier.onnx",
		AnomalyFile:       "anomaly.onnx",
		FeatureNamesFile:  "feature_names.json",
		MetricsFile:       "metrics.json",
		ManifestFile:      "manifest.json",
		InputName:         "float_input",
		ProbabilityOutput: "probabilities",
		ScoreOutput:       "scores",
		PositiveIndex:     1,
		ClassifierName:    "Random Forest",
		AnomalyName:       "Isolation Forest",
	}
}

// Bundle is the loaded pipeline configuration plus the sessions backing it.
type Bundle struct {
	Config   pipeline.PipelineConfig
	Manifest *Manifest
	runners  []Runner
}

func (b *Bundle) Close() error {
	var errs []error
	for _, r := range b.runners {
		errs = append(errs, r.Close())
	}
	b.runners = nil
	return errors.Join(errs...)
}

type Loader struct {
	cfg  Config
	open Opener
	log  *logger.Logger
}

func NewLoader(cfg Config, open Opener, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{cfg: cfg, open: open, log: log}
}

func (l *Loader) path(name string) string {
	return filepath.Join(l.cfg.Dir, name)
}

// Load reads the artifact directory. A missing classifier yields a mock-mode
// config; a schema mismatch is fatal. Missing anomaly or metrics artifacts
// only disable those parts.
func (l *Loader) Load(ctx context.Context) (*Bundle, error) {
	b := &Bundle{Config: pipeline.DefaultConfig()}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metrics, err := l.loadMetrics()
	if err != nil {
		l.log.Warn("model metrics unreadable, reporting none", logger.Error(err))
	}
	b.Config.Metrics = metrics

	clsPath := l.path(l.cfg.ClassifierFile)
	if !exists(clsPath) {
		l.log.Warn("classifier artifact missing, serving mock predictions", logger.String("path", clsPath))
		return b, nil
	}

	names, err := l.loadFeatureNames()
	if err != nil {
		return nil, err
	}
	b.Config.FeatureNames = names

	manifest, err := l.loadManifest()
	if err != nil {
		return nil, err
	}
	if manifest != nil {
		if err := manifest.Check(names); err != nil {
			return nil, err
		}
		b.Manifest = manifest
		b.Config.SchemaVersion = manifest.SchemaVersion
	}

	cls, err := l.open(clsPath, TensorSpec{Input: l.cfg.InputName, Output: l.cfg.ProbabilityOutput, Width: 2})
	if err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}
	b.runners = append(b.runners, cls)
	b.Config.Classifier = NewClassifier(cls, l.cfg.PositiveIndex, l.cfg.ClassifierName)

	anomalyPath := l.path(l.cfg.AnomalyFile)
	switch {
	case l.cfg.AnomalyFile == "" || !exists(anomalyPath):
		l.log.Warn("anomaly artifact missing, stage 2 disabled", logger.String("path", anomalyPath))
	default:
		r, err := l.open(anomalyPath, TensorSpec{Input: l.cfg.InputName, Output: l.cfg.ScoreOutput, Width: 1})
		if err != nil {
			l.log.Error("anomaly model failed to load, stage 2 disabled", logger.Error(err))
			break
		}
		b.runners = append(b.runners, r)
		b.Config.Anomaly = NewAnomalyScorer(r, l.cfg.AnomalyName)
	}

	l.log.Info("models loaded",
		logger.Int("features", len(names)),
		logger.Bool("anomaly_gate", b.Config.AnomalyLoaded()),
		logger.Bool("metrics", metrics != nil),
		logger.String("schema_version", b.Config.SchemaVersion),
	)
	return b, nil
}

func (l *Loader) loadFeatureNames() ([]string, error) {
	var names []string
	if err := readJSON(l.path(l.cfg.FeatureNamesFile), &names); err != nil {
		return nil, fmt.Errorf("load feature names: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("load feature names: %s is empty", l.cfg.FeatureNamesFile)
	}
	return names, nil
}

func (l *Loader) loadManifest() (*Manifest, error) {
	p := l.path(l.cfg.ManifestFile)
	if !exists(p) {
		if l.cfg.RequireManifest {
			return nil, fmt.Errorf("%w: manifest %s missing", ErrSchemaMismatch, p)
		}
		l.log.Warn("model manifest missing, feature order is unverified", logger.String("path", p))
		return nil, nil
	}
	var m Manifest
	if err := readJSON(p, &m); err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	return &m, nil
}

func (l *Loader) loadMetrics() (*models.ModelMetrics, error) {
	if l.cfg.MetricsFile == "" {
		return nil, nil
	}
	var m models.ModelMetrics
	err := readJSON(l.path(l.cfg.MetricsFile), &m)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func readJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

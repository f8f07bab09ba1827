package model

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlareCast/internal/domain/models"
	"FlareCast/internal/pipeline"
)

type fakeRunner struct {
	out    []float32
	err    error
	closed bool
	got    []float32
}

func (f *fakeRunner) Run(in []float32) ([]float32, error) {
	f.got = in
	return f.out, f.err
}

func (f *fakeRunner) Close() error {
	f.closed = true
	return nil
}

type fakeOpener struct {
	runners map[string]*fakeRunner
	specs   map[string]TensorSpec
	fail    map[string]error
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{
		runners: map[string]*fakeRunner{
			"classifier.onnx": {out: []float32{0.2, 0.8}},
			"anomaly.onnx":    {out: []float32{-0.3}},
		},
		specs: map[string]TensorSpec{},
		fail:  map[string]error{},
	}
}

func (o *fakeOpener) open(path string, spec TensorSpec) (Runner, error) {
	base := filepath.Base(path)
	o.specs[base] = spec
	if err := o.fail[base]; err != nil {
		return nil, err
	}
	return o.runners[base], nil
}

func writeJSON(t *testing.T, dir, name string, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0o644))
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("onnx"), 0o644))
}

func artifactDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	names := pipeline.DefaultFeatureNames()
	writeJSON(t, dir, "feature_names.json", names)
	writeJSON(t, dir, "manifest.json", Manifest{
		SchemaVersion: SupportedSchemaVersion,
		FeatureHash:   FeatureHash(names),
		FeatureCount:  len(names),
	})
	writeJSON(t, dir, "metrics.json", models.ModelMetrics{Accuracy: 0.914, AUCROC: 0.755, FeaturesUsed: 23})
	touch(t, dir, "classifier.onnx")
	touch(t, dir, "anomaly.onnx")
	return dir
}

func newTestLoader(dir string, o *fakeOpener) *Loader {
	cfg := DefaultConfig()
	cfg.Dir = dir
	return NewLoader(cfg, o.open, nil)
}

func TestLoadFullBundle(t *testing.T) {
	dir := artifactDir(t)
	o := newFakeOpener()

	b, err := newTestLoader(dir, o).Load(context.Background())
	require.NoError(t, err)

	assert.True(t, b.Config.ClassifierLoaded())
	assert.True(t, b.Config.AnomalyLoaded())
	require.NotNil(t, b.Config.Metrics)
	assert.Equal(t, 0.914, b.Config.Metrics.Accuracy)
	assert.Equal(t, SupportedSchemaVersion, b.Config.SchemaVersion)
	assert.Equal(t, TensorSpec{Input: "float_input", Output: "probabilities", Width: 2}, o.specs["classifier.onnx"])
	assert.Equal(t, TensorSpec{Input: "float_input", Output: "scores", Width: 1}, o.specs["anomaly.onnx"])

	sig, err := b.Config.Classifier.Significance(context.Background(), make(models.FeatureVector, 23))
	require.NoError(t, err)
	assert.InDelta(t, 0.8, sig, 1e-6)

	score, err := b.Config.Anomaly.Score(context.Background(), make(models.FeatureVector, 23))
	require.NoError(t, err)
	assert.InDelta(t, -0.3, score, 1e-6)

	require.NoError(t, b.Close())
	assert.True(t, o.runners["classifier.onnx"].closed)
	assert.True(t, o.runners["anomaly.onnx"].closed)
}

func TestLoadWithoutClassifierIsMockMode(t *testing.T) {
	dir := t.TempDir()

	b, err := newTestLoader(dir, newFakeOpener()).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, b.Config.ClassifierLoaded())
	assert.Nil(t, b.Config.Metrics)
	assert.Equal(t, pipeline.DefaultFeatureNames(), b.Config.FeatureNames)
}

func TestLoadOptionalArtifactsDegrade(t *testing.T) {
	dir := artifactDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "anomaly.onnx")))
	require.NoError(t, os.Remove(filepath.Join(dir, "metrics.json")))

	b, err := newTestLoader(dir, newFakeOpener()).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, b.Config.ClassifierLoaded())
	assert.False(t, b.Config.AnomalyLoaded())
	assert.Nil(t, b.Config.Metrics)
}

func TestLoadAnomalyOpenFailureDisablesStageTwo(t *testing.T) {
	dir := artifactDir(t)
	o := newFakeOpener()
	o.fail["anomaly.onnx"] = errors.New("bad graph")

	b, err := newTestLoader(dir, o).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, b.Config.AnomalyLoaded())
}

func TestLoadFailsFastOnSchemaMismatch(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
	}{
		{"version", Manifest{SchemaVersion: "1", FeatureHash: FeatureHash(pipeline.DefaultFeatureNames())}},
		{"hash", Manifest{SchemaVersion: SupportedSchemaVersion, FeatureHash: "deadbeef"}},
		{"count", Manifest{SchemaVersion: SupportedSchemaVersion, FeatureHash: FeatureHash(pipeline.DefaultFeatureNames()), FeatureCount: 22}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := artifactDir(t)
			writeJSON(t, dir, "manifest.json", tt.manifest)

			_, err := newTestLoader(dir, newFakeOpener()).Load(context.Background())
			assert.ErrorIs(t, err, ErrSchemaMismatch)
		})
	}
}

func TestLoadDetectsReorderedFeatures(t *testing.T) {
	dir := artifactDir(t)
	names := pipeline.DefaultFeatureNames()
	names[0], names[1] = names[1], names[0]
	writeJSON(t, dir, "feature_names.json", names)

	_, err := newTestLoader(dir, newFakeOpener()).Load(context.Background())
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestLoadRequiresManifestWhenConfigured(t *testing.T) {
	dir := artifactDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "manifest.json")))

	cfg := DefaultConfig()
	cfg.Dir = dir
	cfg.RequireManifest = true
	_, err := NewLoader(cfg, newFakeOpener().open, nil).Load(context.Background())
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	cfg.RequireManifest = false
	b, err := NewLoader(cfg, newFakeOpener().open, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, b.Manifest)
}

func TestClassifierRejectsShortOutput(t *testing.T) {
	c := NewClassifier(&fakeRunner{out: []float32{0.4}}, 1, "rf")
	_, err := c.Significance(context.Background(), models.FeatureVector{1})
	assert.Error(t, err)
}

// Runs against real artifacts when FLARECAST_ORT_LIB and FLARECAST_MODEL_DIR are set.
func TestONNXArtifacts(t *testing.T) {
	lib, dir := os.Getenv("FLARECAST_ORT_LIB"), os.Getenv("FLARECAST_MODEL_DIR")
	if lib == "" || dir == "" {
		t.Skip("onnxruntime library or model dir not configured")
	}
	cfg := DefaultConfig()
	cfg.Dir = dir
	b, err := NewLoader(cfg, ONNXOpener(lib, 1), nil).Load(context.Background())
	require.NoError(t, err)
	defer b.Close()

	if !b.Config.ClassifierLoaded() {
		t.Skip("no classifier in model dir")
	}
	sig, err := b.Config.Classifier.Significance(context.Background(), make(models.FeatureVector, len(b.Config.FeatureNames)))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sig, 0.0)
	assert.LessOrEqual(t, sig, 1.0)
}

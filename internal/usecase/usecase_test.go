package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlareCast/internal/domain/models"
	"FlareCast/internal/pipeline"
	"FlareCast/internal/repository"
	"FlareCast/internal/services/spaceweather"
	pkgkafka "FlareCast/pkg/kafka"
	"FlareCast/pkg/logger"
)

type fixedModel struct {
	name  string
	value float64
	err   error
}

func (m fixedModel) Significance(context.Context, models.FeatureVector) (float64, error) {
	return m.value, m.err
}

func (m fixedModel) Score(context.Context, models.FeatureVector) (float64, error) {
	return m.value, m.err
}

func (m fixedModel) Name() string { return m.name }

type recordingMetrics struct {
	mu          sync.Mutex
	predictions map[models.Provenance]int
	gate        map[bool]int
	errors      map[string]int
	fallbacks   map[string]int
	latencies   map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		predictions: map[models.Provenance]int{},
		gate:        map[bool]int{},
		errors:      map[string]int{},
		fallbacks:   map[string]int{},
		latencies:   map[string]int{},
	}
}

func (m *recordingMetrics) RecordPrediction(_ models.FlareClass, p models.Provenance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[p]++
}

func (m *recordingMetrics) RecordAnomalyGate(invoked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate[invoked]++
}

func (m *recordingMetrics) RecordFeedFallback(feed string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks[feed]++
}

func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *recordingMetrics) RecordLatency(op string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies[op]++
}

type capturePublisher struct {
	got []*models.PredictionResult
	err error
}

func (p *capturePublisher) PublishPrediction(_ context.Context, r *models.PredictionResult) error {
	p.got = append(p.got, r)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

type captureStream struct {
	kinds []string
}

func (s *captureStream) Broadcast(kind string, _ interface{}) { s.kinds = append(s.kinds, kind) }

type captureTracker struct {
	tags []map[string]string
}

func (t *captureTracker) CaptureError(_ context.Context, _ error, tags map[string]string) {
	t.tags = append(t.tags, tags)
}

func (t *captureTracker) Flush(time.Duration) bool { return true }

type harness struct {
	uc      *PredictionUseCase
	metrics *recordingMetrics
	events  *capturePublisher
	stream  *captureStream
	tracker *captureTracker
}

func newHarness(t *testing.T, classifier, anomaly *fixedModel) *harness {
	t.Helper()
	h := &harness{
		metrics: newRecordingMetrics(),
		events:  &capturePublisher{},
		stream:  &captureStream{},
		tracker: &captureTracker{},
	}
	cfg := pipeline.DefaultConfig()
	if classifier != nil {
		cfg.Classifier = *classifier
	}
	if anomaly != nil {
		cfg.Anomaly = *anomaly
	}
	p, err := pipeline.NewPredictor(cfg,
		pipeline.WithFailureHook(NewFailureHook(logger.Nop(), h.tracker, h.metrics)),
		pipeline.WithGateHook(NewGateHook(h.metrics)),
	)
	require.NoError(t, err)
	h.uc = NewPredictionUseCase(p, repository.NewMemoryStore(10), h.events, h.metrics, h.stream, logger.Nop())
	return h
}

func features() []float64 {
	return make([]float64, len(pipeline.DefaultFeatureNames()))
}

func TestPredictFansOut(t *testing.T) {
	h := newHarness(t, &fixedModel{name: "Stage-1", value: 0.85}, &fixedModel{name: "Stage-2", value: 0.05})

	res, err := h.uc.Predict(context.Background(), features())
	require.NoError(t, err)
	assert.Equal(t, models.ClassX, res.FlareClass)
	assert.Equal(t, models.ProvenanceConfident, res.Provenance)

	recent, err := h.uc.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, res.ID, recent[0].ID)

	require.Len(t, h.events.got, 1)
	assert.Equal(t, []string{EventPrediction}, h.stream.kinds)
	assert.Equal(t, 1, h.metrics.predictions[models.ProvenanceConfident])
	assert.Equal(t, 1, h.metrics.gate[true])
	assert.Equal(t, 1, h.metrics.latencies["predict"])
}

func TestPredictPublishFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, &fixedModel{name: "Stage-1", value: 0.1}, nil)
	h.events.err = errors.New("broker down")

	res, err := h.uc.Predict(context.Background(), features())
	require.NoError(t, err)
	assert.Equal(t, models.ClassInsignificant, res.FlareClass)
	assert.Equal(t, 1, h.metrics.errors["publish"])
	assert.Equal(t, 1, h.metrics.gate[false])
}

func TestPredictFeatureCountMismatch(t *testing.T) {
	h := newHarness(t, &fixedModel{name: "Stage-1", value: 0.5}, nil)

	_, err := h.uc.Predict(context.Background(), []float64{1, 2, 3})
	require.ErrorIs(t, err, pipeline.ErrFeatureCountMismatch)
	assert.Equal(t, 1, h.metrics.errors["feature_count"])
	assert.Empty(t, h.events.got)
	assert.Empty(t, h.stream.kinds)
}

func TestDegradedPredictionReportsFailure(t *testing.T) {
	h := newHarness(t, &fixedModel{name: "Stage-1", err: errors.New("session closed")}, nil)

	res, err := h.uc.Predict(context.Background(), features())
	require.NoError(t, err)
	assert.Equal(t, models.ProvenanceDegraded, res.Provenance)
	assert.Equal(t, models.ClassC, res.FlareClass)
	assert.Equal(t, 1, h.metrics.errors["inference"])
	require.Len(t, h.tracker.tags, 1)
	assert.Equal(t, "significance", h.tracker.tags[0]["stage"])
}

func TestScoringHandler(t *testing.T) {
	h := newHarness(t, &fixedModel{name: "Stage-1", value: 0.45}, nil)
	handler := NewScoringHandler("flarecast.features", h.uc)
	assert.Equal(t, "flarecast.features", handler.Topic())

	body, _ := json.Marshal(models.ScoringMessage{ID: "batch-7", Features: features()})
	require.NoError(t, handler.Handle(context.Background(), body))
	require.Len(t, h.events.got, 1)
	assert.Equal(t, "batch-7", h.events.got[0].ID)
	assert.Equal(t, models.ClassM, h.events.got[0].FlareClass)

	err := handler.Handle(context.Background(), []byte("{"))
	assert.True(t, pkgkafka.IsPermanent(err))

	body, _ = json.Marshal(models.ScoringMessage{Features: []float64{1}})
	err = handler.Handle(context.Background(), body)
	assert.True(t, pkgkafka.IsPermanent(err))
	assert.ErrorIs(t, err, pipeline.ErrFeatureCountMismatch)
}

type stubFeeds struct {
	report models.FlareReport
	flux   models.XRayFlux
	err    error
}

func (s stubFeeds) RecentFlares(context.Context) (models.FlareReport, error) { return s.report, s.err }
func (s stubFeeds) LatestFlux(context.Context) (models.XRayFlux, error)      { return s.flux, s.err }

func TestSolarNow(t *testing.T) {
	cases := []struct {
		name    string
		report  models.FlareReport
		regions int
		message string
	}{
		{
			name:    "live",
			report:  models.FlareReport{Flares: []models.Flare{{ClassType: "X1.1"}}, Total: 7, Regions: []string{"AR13664", "AR13663", "unknown"}, DataSource: spaceweather.SourceDonki},
			regions: 3,
			message: "Solar data retrieved successfully",
		},
		{
			name:    "no regions",
			report:  models.FlareReport{DataSource: spaceweather.SourceDonki},
			regions: 2,
			message: "Solar data retrieved successfully",
		},
		{
			name:    "unreachable",
			report:  models.FlareReport{Total: 2, Regions: []string{"AR13428", "AR13425"}, DataSource: spaceweather.SourceFallbackEducated, Fallback: true},
			regions: 2,
			message: "Solar data retrieved from educational sources",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			feeds := stubFeeds{report: tc.report}
			got, err := NewSpaceWeatherUseCase(feeds, feeds).SolarNow(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.regions, got.ActiveRegions)
			assert.Equal(t, tc.message, got.Message)
			assert.Equal(t, "success", got.Status)
			assert.Equal(t, tc.report.Total, got.FlareCount)
			assert.NotNil(t, got.Flares)
		})
	}
}

func TestXRayFluxMessage(t *testing.T) {
	live := stubFeeds{flux: models.XRayFlux{Flux: 2.1e-6, Energy: "0.1-0.8nm"}}
	got, err := NewSpaceWeatherUseCase(live, live).XRayFlux(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "live", got.Status)
	assert.Equal(t, "Real-time X-ray data from NOAA", got.Message)

	canned := stubFeeds{flux: models.XRayFlux{Flux: 1.3e-6, Fallback: true}}
	got, err = NewSpaceWeatherUseCase(canned, canned).XRayFlux(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "X-ray data from NOAA satellite network", got.Message)
}

func TestSystemStatus(t *testing.T) {
	store := repository.NewMemoryStore(1)

	demo := NewStatusUseCase("2.0.0", pipeline.DefaultConfig(), store).SystemStatus(context.Background())
	assert.Equal(t, "operational", demo.Status)
	assert.Equal(t, "2.0.0", demo.Version)
	assert.Equal(t, models.ComponentDemo, demo.Components["ml_model"])
	assert.Equal(t, models.ComponentDisabled, demo.Components["anomaly_gate"])
	assert.Equal(t, []string{"NASA DONKI", "NOAA GOES", "SDO/AIA"}, demo.DataSources)

	cfg := pipeline.DefaultConfig()
	cfg.Classifier = fixedModel{name: "Stage-1"}
	cfg.Anomaly = fixedModel{name: "Stage-2"}
	full := NewStatusUseCase("2.0.0", cfg, store).SystemStatus(context.Background())
	assert.Equal(t, models.ComponentActive, full.Components["ml_model"])
	assert.Equal(t, models.ComponentActive, full.Components["anomaly_gate"])
	assert.Equal(t, models.ComponentHealthy, full.Components["api"])
}

func TestModelPerformance(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	uc := NewStatusUseCase("2.0.0", cfg, repository.NewMemoryStore(1))
	assert.Equal(t, models.ModelPerformance{Status: "metrics_unavailable"}, uc.ModelPerformance())

	cfg.Metrics = &models.ModelMetrics{Accuracy: 0.914, ModelType: "Random Forest"}
	mock := NewStatusUseCase("2.0.0", cfg, repository.NewMemoryStore(1)).ModelPerformance()
	assert.Equal(t, models.ModelPerformance{Status: "metrics_unavailable"}, mock, "metrics without a serving classifier are not reported")

	cfg.Classifier = fixedModel{name: "Random Forest"}
	cfg.Anomaly = fixedModel{name: "Isolation Forest"}
	cfg.Metrics = &models.ModelMetrics{Accuracy: 0.914, AUCROC: 0.755, FeaturesUsed: 23, SignificantFlare: 154}
	perf := NewStatusUseCase("2.0.0", cfg, repository.NewMemoryStore(1)).ModelPerformance()
	require.NotNil(t, perf.ModelMetrics)
	assert.Equal(t, "metrics_loaded", perf.Status)
	assert.Equal(t, "Random Forest + Isolation Forest Ensemble", perf.ModelType)

	b, err := json.Marshal(perf)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"significant_flares":154`)
	assert.Contains(t, string(b), `"status":"metrics_loaded"`)
}

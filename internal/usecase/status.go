package usecase

import (
	"context"
	"fmt"
	"time"

	"FlareCast/internal/domain/models"
	"FlareCast/internal/domain/repository"
	"FlareCast/internal/pipeline"
)

var dataSources = []string{"NASA DONKI", "NOAA GOES", "SDO/AIA"}

type StatusUseCase struct {
	version string
	cfg     pipeline.PipelineConfig
	store   repository.PredictionStore
	now     func() time.Time
}

func NewStatusUseCase(version string, cfg pipeline.PipelineConfig, store repository.PredictionStore) *StatusUseCase {
	return &StatusUseCase{version: version, cfg: cfg, store: store, now: time.Now}
}

func (u *StatusUseCase) SystemStatus(ctx context.Context) models.SystemStatus {
	model := models.ComponentActive
	if !u.cfg.ClassifierLoaded() {
		model = models.ComponentDemo
	}
	gate := models.ComponentActive
	if !u.cfg.AnomalyLoaded() {
		gate = models.ComponentDisabled
	}
	history := models.ComponentHealthy
	if err := u.store.Health(ctx); err != nil {
		history = models.ComponentDegraded
	}
	return models.SystemStatus{
		Status:    "operational",
		Version:   u.version,
		Timestamp: u.now().UTC(),
		Components: map[string]string{
			"solar_data":   models.ComponentActive,
			"xray_flux":    models.ComponentActive,
			"ml_model":     model,
			"anomaly_gate": gate,
			"history":      history,
			"api":          models.ComponentHealthy,
		},
		DataSources: append([]string(nil), dataSources...),
		Message:     "Solar Flare Prediction System Operational",
	}
}

// ModelPerformance reports training metrics only for a model that is serving.
// In mock mode a shipped metrics.json describes nothing live.
func (u *StatusUseCase) ModelPerformance() models.ModelPerformance {
	if u.cfg.Metrics == nil || !u.cfg.ClassifierLoaded() {
		return models.ModelPerformance{Status: "metrics_unavailable"}
	}
	m := *u.cfg.Metrics
	if m.ModelType == "" {
		m.ModelType = u.cfg.ModelUsed()
	}
	return models.ModelPerformance{ModelMetrics: &m, Status: "metrics_loaded"}
}

// Ready fails when prediction history is unreachable.
func (u *StatusUseCase) Ready(ctx context.Context) error {
	if err := u.store.Health(ctx); err != nil {
		return fmt.Errorf("prediction store: %w", err)
	}
	return nil
}

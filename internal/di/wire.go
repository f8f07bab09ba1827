//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FlareCast/internal/services/stream"
	"FlareCast/internal/usecase"
	"FlareCast/pkg/config"
	"FlareCast/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// The returned cleanup releases clients and model sessions; call it after Run.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,
		ProvideTracker,

		// Infrastructure clients
		ProvideCache,
		ProvideKafkaProducer,
		ProvideClickHouseClient,

		// Repositories
		ProvidePredictionStore,
		ProvideEventPublisher,

		// Models and pipeline
		ProvideModelBundle,
		ProvidePipelineConfig,
		ProvidePredictor,

		// Feeds and streaming
		ProvideFeeds,
		ProvideHub,
		wire.Bind(new(usecase.Broadcaster), new(*stream.Hub)),

		// Use cases
		usecase.NewPredictionUseCase,
		ProvideSpaceWeatherUseCase,
		ProvideStatusUseCase,

		// Transport
		ProvideLimiter,
		ProvideFlareHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		ProvideApp,
	)
	return &server.App{}, nil, nil
}

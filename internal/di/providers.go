package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/segmentio/kafka-go"

	"FlareCast/internal/domain/repository"
	"FlareCast/internal/handler/api"
	"FlareCast/internal/pipeline"
	internalrepo "FlareCast/internal/repository"
	"FlareCast/internal/service/ratelimit"
	"FlareCast/internal/services/model"
	"FlareCast/internal/services/spaceweather"
	"FlareCast/internal/services/stream"
	"FlareCast/internal/usecase"
	"FlareCast/pkg/cache"
	pkgch "FlareCast/pkg/clickhouse"
	"FlareCast/pkg/config"
	xhttp "FlareCast/pkg/http"
	pkgkafka "FlareCast/pkg/kafka"
	"FlareCast/pkg/logger"
	"FlareCast/pkg/metrics"
	"FlareCast/pkg/server"
	"FlareCast/pkg/tracker"
)

const initTimeout = 10 * time.Second

// release adapts a Close method into a wire cleanup.
func release(log *logger.Logger, resource string, closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			log.Warn("release failed", logger.String("resource", resource), logger.Error(err))
			return
		}
		log.Info("released", logger.String("resource", resource))
	}
}

func noCleanup() {}

func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	lc := cfg.Logging
	if lc.Component == "" {
		lc.Component = "flarecast"
	}
	return logger.New(&lc)
}

// ProvideRegistry is the registry served on /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

func ProvideTracker(cfg *config.Config) (tracker.Tracker, func(), error) {
	env := cfg.Tracker.Environment
	if env == "" {
		env = cfg.Environment
	}
	t, err := tracker.New(tracker.Config{
		DSN:         cfg.Tracker.DSN,
		Environment: env,
		Release:     "flarecast@" + cfg.App.Version,
		SampleRate:  cfg.Tracker.SampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("tracker: %w", err)
	}
	return t, func() { t.Flush(2 * time.Second) }, nil
}

// ProvideCache layers an in-process cache over Redis when Redis is enabled.
// An unreachable Redis degrades to the in-process cache.
func ProvideCache(cfg *config.Config, log *logger.Logger) (cache.Service, func()) {
	if !cfg.Redis.Enabled {
		c := cache.NewMemoryCache()
		return c, release(log, "cache", c.Close)
	}
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	remote, err := cache.NewRedisCache(ctx,
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		log.Warn("redis unavailable, using in-process cache", logger.String("addr", cfg.Redis.Addr), logger.Error(err))
		c := cache.NewMemoryCache()
		return c, release(log, "cache", c.Close)
	}
	c := cache.NewLayeredCache(remote, cfg.Redis.LocalTTL)
	return c, release(log, "cache", c.Close)
}

// ProvideKafkaProducer returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry, log *logger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, noCleanup, nil
	}
	p, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithProducerMetrics(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return p, release(log, "kafka_producer", p.Close), nil
}

func ProvideEventPublisher(cfg *config.Config, p *pkgkafka.Producer) repository.EventPublisher {
	if p == nil {
		return internalrepo.NoopPublisher{}
	}
	return internalrepo.NewKafkaPublisher(p, cfg.Kafka.PredictionsTopic)
}

// ProvideClickHouseClient returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config, log *logger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, noCleanup, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, 10*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, release(log, "clickhouse", client.Close), nil
}

// ProvidePredictionStore keeps history in ClickHouse, or in memory without it.
func ProvidePredictionStore(client *pkgch.Client) (repository.PredictionStore, error) {
	if client == nil {
		return internalrepo.NewMemoryStore(500), nil
	}
	store := internalrepo.NewClickHouseStore(client, "predictions")
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

func ProvideModelBundle(cfg *config.Config, log *logger.Logger) (*model.Bundle, func(), error) {
	mc := model.DefaultConfig()
	mc.Dir = cfg.Model.Dir
	mc.RequireManifest = cfg.Model.RequireManifest
	mc.InputName = cfg.Model.InputName
	mc.ProbabilityOutput = cfg.Model.ProbOutput
	mc.ScoreOutput = cfg.Model.ScoreOutput

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	bundle, err := model.NewLoader(mc, model.ONNXOpener(cfg.Model.RuntimeLibrary, cfg.Model.Threads), log).Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load models: %w", err)
	}
	return bundle, release(log, "models", func() error {
		return errors.Join(bundle.Close(), model.ShutdownRuntime())
	}), nil
}

func ProvidePipelineConfig(b *model.Bundle) pipeline.PipelineConfig {
	return b.Config
}

func ProvidePredictor(pc pipeline.PipelineConfig, log *logger.Logger, t tracker.Tracker, m repository.Metrics) (*pipeline.Predictor, error) {
	return pipeline.NewPredictor(pc,
		pipeline.WithFailureHook(usecase.NewFailureHook(log, t, m)),
		pipeline.WithGateHook(usecase.NewGateHook(m)),
	)
}

func ProvideHub(cfg *config.Config, log *logger.Logger) *stream.Hub {
	return stream.NewHub(log, cfg.Stream.Buffer, cfg.Server.CORSOrigins)
}

func ProvideFeeds(cfg *config.Config, log *logger.Logger, c cache.Service, m repository.Metrics) *spaceweather.CachedFeeds {
	client := xhttp.NewClient(
		xhttp.WithTimeout(cfg.Feeds.Timeout),
		xhttp.WithUserAgent("flarecast/"+cfg.App.Version),
	)
	donki := spaceweather.NewDonkiClient(spaceweather.DonkiConfig{
		URL:          cfg.Feeds.Donki.URL,
		APIKey:       cfg.Feeds.Donki.APIKey,
		LookbackDays: cfg.Feeds.Donki.LookbackDays,
		Limit:        cfg.Feeds.Donki.Limit,
	}, client, log)
	goes := spaceweather.NewGoesClient(cfg.Feeds.Goes.URL, client, log)
	return spaceweather.NewCachedFeeds(donki, goes, c, cfg.Feeds.CacheTTL, m)
}

func ProvideSpaceWeatherUseCase(feeds *spaceweather.CachedFeeds) *usecase.SpaceWeatherUseCase {
	return usecase.NewSpaceWeatherUseCase(feeds, feeds)
}

func ProvideStatusUseCase(cfg *config.Config, pc pipeline.PipelineConfig, store repository.PredictionStore) *usecase.StatusUseCase {
	return usecase.NewStatusUseCase(cfg.App.Version, pc, store)
}

// ProvideLimiter returns nil when rate limiting is disabled.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 10*time.Minute)
}

func ProvideFlareHandler(
	cfg *config.Config,
	log *logger.Logger,
	predictions *usecase.PredictionUseCase,
	weather *usecase.SpaceWeatherUseCase,
	status *usecase.StatusUseCase,
	hub *stream.Hub,
	limiter *ratelimit.Limiter,
) *api.FlareHandler {
	if !cfg.Stream.Enabled {
		hub = nil
	}
	return api.NewFlareHandler(log, cfg.App.Version, predictions, weather, status, hub, limiter)
}

func ProvideHTTPServer(cfg *config.Config, log *logger.Logger, reg *prometheus.Registry, h *api.FlareHandler) *xhttp.Server {
	return xhttp.NewServer(log, []xhttp.Handler{h},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithMetrics(cfg.Server.MetricsPath, reg, reg),
	)
}

// ProvideKafkaConsumer returns nil unless Kafka and the scoring consumer are both enabled.
func ProvideKafkaConsumer(cfg *config.Config, log *logger.Logger, uc *usecase.PredictionUseCase, m repository.Metrics) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	cc := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(log,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cc.GroupID),
		pkgkafka.WithConsumerWorkers(cc.Workers),
		pkgkafka.WithConsumerBufferSize(cc.BufferSize),
		pkgkafka.WithConsumerRetry(cc.RetryMax, cc.BackoffMin, cc.BackoffMax),
		pkgkafka.WithConsumerDLQ(cc.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(usecase.NewScoringHandler(cfg.Kafka.FeaturesTopic, uc))
	consumer.SetHook(pkgkafka.HookFuncs{
		After: func(ctx context.Context, topic string, _ kafka.Message, _ []byte, err error) {
			if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
				m.RecordLatency("consume:"+topic, time.Since(start))
			}
			if err != nil {
				m.RecordError("consume")
			}
		},
	})
	return consumer, nil
}

func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	srv *xhttp.Server,
	hub *stream.Hub,
	weather *usecase.SpaceWeatherUseCase,
	limiter *ratelimit.Limiter,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	bundle *model.Bundle,
) *server.App {
	if producer != nil {
		log.AddCollector(&logger.CollectionConfig{
			Interval:  time.Minute,
			MaxUnique: 100,
			Topic:     cfg.Kafka.LogsTopic,
			Service:   "flarecast",
			Publisher: producer,
		})
	}
	return server.New(server.Deps{
		Config:   cfg,
		Log:      log,
		HTTP:     srv,
		Hub:      hub,
		Weather:  weather,
		Limiter:  limiter,
		Consumer: consumer,
		Models:   bundle,
	})
}

package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"FlareCast/internal/service/ratelimit"
	"FlareCast/internal/services/model"
	"FlareCast/internal/services/stream"
	"FlareCast/internal/usecase"
	"FlareCast/pkg/config"
	xhttp "FlareCast/pkg/http"
	pkgkafka "FlareCast/pkg/kafka"
	applogger "FlareCast/pkg/logger"
)

// Deps is everything the App starts and stops. Consumer, Hub, Limiter and
// Models may be nil. Clients and model sessions are released by the
// injector's cleanup after Run returns.
type Deps struct {
	Config   *config.Config
	Log      *applogger.Logger
	HTTP     *xhttp.Server
	Hub      *stream.Hub
	Weather  *usecase.SpaceWeatherUseCase
	Limiter  *ratelimit.Limiter
	Consumer *pkgkafka.Consumer
	Models   *model.Bundle
}

// App encapsulates the application lifecycle.
type App struct {
	Deps
}

func New(d Deps) *App {
	return &App{Deps: d}
}

// Run starts every component and blocks until SIGINT/SIGTERM or a fatal
// listener error, then shuts down in dependency order.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	l := a.Log
	bg, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.HTTP.Start(); err != nil {
		return err
	}

	if a.Consumer != nil {
		if err := a.Consumer.Start(); err != nil {
			l.Error("kafka consumer start", applogger.Error(err))
		} else {
			l.Info("kafka consumer started", applogger.String("topic", a.Config.Kafka.FeaturesTopic))
		}
	}

	if a.Hub != nil && a.Config.Stream.Enabled {
		go a.Hub.Run(bg, a.Config.Stream.Interval, usecase.EventXRayFlux, func(ctx context.Context) (interface{}, error) {
			return a.Weather.XRayFlux(ctx)
		})
	}

	stopSweep := make(chan struct{})
	if a.Limiter != nil {
		go a.Limiter.Run(stopSweep)
	}

	l.Info("flarecast started",
		applogger.String("env", a.Config.Environment),
		applogger.String("version", a.Config.App.Version),
		applogger.Int("port", a.Config.Server.Port),
		applogger.Bool("models", a.Models != nil && a.Models.Config.ClassifierLoaded()))

	var runErr error
	select {
	case <-ctx.Done():
		l.Info("shutdown signal received")
	case runErr = <-a.HTTP.Errors():
	}

	cancel()
	close(stopSweep)
	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown stops intake: stream clients, HTTP, then the consumer. The log
// collector is detached last since it publishes through the producer.
func (a *App) shutdown() error {
	l := a.Log
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Hub != nil {
		a.Hub.Close()
	}
	if err := a.HTTP.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.Consumer != nil {
		if err := a.Consumer.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	l.RemoveCollector()

	err := errors.Join(errs...)
	if err != nil {
		l.Warn("shutdown finished with errors", applogger.Error(err))
	} else {
		l.Info("shutdown complete")
	}
	return err
}

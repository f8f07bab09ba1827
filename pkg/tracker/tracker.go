package tracker

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
)

// Tracker reports errors that were handled but should not go unnoticed.
type Tracker interface {
	CaptureError(ctx context.Context, err error, tags map[string]string)
	Flush(timeout time.Duration) bool
}

type Config struct {
	DSN         string
	Environment string
	Release     string
	SampleRate  float64
}

// New returns a Sentry tracker, or a Noop when no DSN is configured.
func New(cfg Config) (Tracker, error) {
	if cfg.DSN == "" {
		return Noop{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		SampleRate:  cfg.SampleRate,
	})
	if err != nil {
		return nil, err
	}
	return &Sentry{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

type Sentry struct {
	hub *sentry.Hub
}

func (s *Sentry) CaptureError(_ context.Context, err error, tags map[string]string) {
	hub := s.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		scope.SetLevel(sentry.LevelWarning)
	})
	hub.CaptureException(err)
}

func (s *Sentry) Flush(timeout time.Duration) bool {
	return s.hub.Flush(timeout)
}

type Noop struct{}

func (Noop) CaptureError(context.Context, error, map[string]string) {}
func (Noop) Flush(time.Duration) bool                               { return true }

package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"FlareCast/pkg/http/middleware"
	"FlareCast/pkg/logger"
)

// Handler mounts a group of routes on the server's echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

type ServerOption func(*ServerConfig)

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MetricsPath     string
	SlowRequest     time.Duration
	Registerer      prometheus.Registerer
	Gatherer        prometheus.Gatherer
}

// Server wraps an echo instance with the standard middleware chain.
type Server struct {
	echo *echo.Echo
	cfg  ServerConfig
	log  *logger.Logger
	errc chan error
}

func NewServer(log *logger.Logger, handlers []Handler, opts ...ServerOption) *Server {
	cfg := ServerConfig{
		Host:            "0.0.0.0",
		Port:            8000,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
		MetricsPath:     "/metrics",
		SlowRequest:     time.Second,
		Registerer:      prometheus.DefaultRegisterer,
		Gatherer:        prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.Recover(log))
	e.Use(middleware.RequestLogging(log, cfg.SlowRequest))
	e.Use(middleware.Metrics(cfg.Registerer))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORS(middleware.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	for _, h := range handlers {
		h.RegisterRoutes(e)
	}
	if cfg.MetricsPath != "" {
		e.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	return &Server{echo: e, cfg: cfg, log: log, errc: make(chan error, 1)}
}

// Start listens in the background. Listener failures are reported on Errors.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	go func() {
		s.log.Info("http server listening", logger.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server failed", logger.Error(err))
			s.errc <- err
		}
	}()
	return nil
}

func (s *Server) Errors() <-chan error { return s.errc }

func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

func (s *Server) Echo() *echo.Echo { return s.echo }

func WithHost(host string) ServerOption {
	return func(c *ServerConfig) { c.Host = host }
}

func WithPort(port int) ServerOption {
	return func(c *ServerConfig) { c.Port = port }
}

func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.ReadTimeout = read
		c.WriteTimeout = write
		c.ShutdownTimeout = shutdown
	}
}

// WithCORSOrigins sets allowed origins; an empty list disables CORS.
func WithCORSOrigins(origins []string) ServerOption {
	return func(c *ServerConfig) { c.CORSOrigins = origins }
}

func WithMetrics(path string, reg prometheus.Registerer, g prometheus.Gatherer) ServerOption {
	return func(c *ServerConfig) {
		c.MetricsPath = path
		c.Registerer = reg
		c.Gatherer = g
	}
}

func WithSlowRequest(d time.Duration) ServerOption {
	return func(c *ServerConfig) { c.SlowRequest = d }
}

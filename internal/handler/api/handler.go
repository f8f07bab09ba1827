package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"FlareCast/internal/service/ratelimit"
	"FlareCast/internal/services/stream"
	"FlareCast/internal/usecase"
	xhttp "FlareCast/pkg/http"
	xlogger "FlareCast/pkg/logger"
)

// FlareHandler serves the public prediction API.
type FlareHandler struct {
	log         *xlogger.Logger
	version     string
	predictions *usecase.PredictionUseCase
	weather     *usecase.SpaceWeatherUseCase
	status      *usecase.StatusUseCase
	hub         *stream.Hub
	limiter     *ratelimit.Limiter
}

func NewFlareHandler(
	log *xlogger.Logger,
	version string,
	predictions *usecase.PredictionUseCase,
	weather *usecase.SpaceWeatherUseCase,
	status *usecase.StatusUseCase,
	hub *stream.Hub,
	limiter *ratelimit.Limiter,
) *FlareHandler {
	return &FlareHandler{
		log:         log,
		version:     version,
		predictions: predictions,
		weather:     weather,
		status:      status,
		hub:         hub,
		limiter:     limiter,
	}
}

var _ xhttp.Handler = (*FlareHandler)(nil)

func (h *FlareHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health/live", h.Live)
	e.GET("/health/ready", h.Ready)

	e.GET("/solar-now", h.SolarNow)
	e.GET("/xray-flux", h.XRayFlux)
	e.GET("/system-status", h.SystemStatus)
	e.GET("/model-performance", h.ModelPerformance)

	e.POST("/predict", h.Predict, h.rateLimit)
	e.GET("/predictions/recent", h.RecentPredictions)

	if h.hub != nil {
		e.GET("/ws/space-weather", h.Stream)
	}
}

type rootResponse struct {
	Message     string `json:"message"`
	Status      string `json:"status"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

func (h *FlareHandler) Root(c echo.Context) error {
	return xhttp.SuccessResponse(c, rootResponse{
		Message:     "Solar Flare Prediction API",
		Status:      "active",
		Version:     h.version,
		Description: "Two-stage solar flare forecasting from HMI active-region features",
	})
}

func (h *FlareHandler) Live(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "alive"})
}

func (h *FlareHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.status.Ready(ctx); err != nil {
		h.log.Warn("readiness check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("not ready").WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ready"})
}

func (h *FlareHandler) SystemStatus(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.status.SystemStatus(c.Request().Context()))
}

func (h *FlareHandler) ModelPerformance(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.status.ModelPerformance())
}

func (h *FlareHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			c.Response().Header().Set("Retry-After", "1")
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many prediction requests"))
		}
		return next(c)
	}
}

func (h *FlareHandler) Stream(c echo.Context) error {
	// on failure the upgrader has already written the HTTP error
	if err := h.hub.Serve(c.Response(), c.Request()); err != nil {
		h.log.Debug("stream upgrade failed", xlogger.Error(err))
	}
	return nil
}

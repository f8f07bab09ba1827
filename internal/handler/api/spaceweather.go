package api

import (
	"github.com/labstack/echo/v4"

	xhttp "FlareCast/pkg/http"
	xlogger "FlareCast/pkg/logger"
)

func (h *FlareHandler) SolarNow(c echo.Context) error {
	res, err := h.weather.SolarNow(c.Request().Context())
	if err != nil {
		h.log.Error("solar-now", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=30")
	return xhttp.SuccessResponse(c, res)
}

func (h *FlareHandler) XRayFlux(c echo.Context) error {
	res, err := h.weather.XRayFlux(c.Request().Context())
	if err != nil {
		h.log.Error("xray-flux", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=30")
	return xhttp.SuccessResponse(c, res)
}

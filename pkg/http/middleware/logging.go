package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"FlareCast/pkg/logger"
)

// RequestLogging logs every request at debug, slow ones at warn and 5xx at error.
func RequestLogging(log *logger.Logger, slow time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			took := time.Since(start)
			status := c.Response().Status
			fields := []logger.Field{
				logger.String("method", c.Request().Method),
				logger.String("route", c.Path()),
				logger.Int("status", status),
				logger.Duration("duration_ms", took),
				logger.String("remote", c.RealIP()),
			}
			switch {
			case status >= 500:
				log.Error("http request failed", fields...)
			case slow > 0 && took >= slow:
				log.Warn("http request slow", fields...)
			default:
				log.Debug("http request", fields...)
			}
			return nil
		}
	}
}

package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"FlareCast/pkg/logger"
)

// Recover turns handler panics into a 500 envelope.
func Recover(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				log.Error("panic in handler",
					logger.String("path", c.Path()),
					logger.String("panic", fmt.Sprint(r)),
					logger.String("stack", string(debug.Stack())),
				)
				err = c.JSON(http.StatusInternalServerError, map[string]interface{}{
					"status":  http.StatusInternalServerError,
					"message": "Internal Server Error",
				})
			}()
			return next(c)
		}
	}
}

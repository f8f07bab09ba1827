package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
}

// CORS answers preflight requests and echoes allowed origins. The browser
// dashboard polls the feed endpoints from another origin.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	wildcard := false
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
		}
	}

	allowed := func(origin string) bool {
		if wildcard {
			return true
		}
		for _, o := range cfg.AllowOrigins {
			if o == origin {
				return true
			}
		}
		return false
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if origin == "" || !allowed(origin) {
				return next(c)
			}

			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)
			if wildcard {
				h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			} else {
				h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			}
			if methods != "" {
				h.Set(echo.HeaderAccessControlAllowMethods, methods)
			}
			if headers != "" {
				h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			}

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}

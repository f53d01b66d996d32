package middleware

import (
	"github.com/labstack/echo/v4"
)

// VersionMiddleware adds the X-Configurator-Version header to all responses
func VersionMiddleware(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-Configurator-Version", version)
			return next(c)
		}
	}
}

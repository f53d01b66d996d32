package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adconfigurator/api/pkg/logging"
	"github.com/adconfigurator/api/pkg/response"
	"github.com/adconfigurator/api/pkg/settings"
)

const settingsKey = "settings"

// SettingsResolver resolves the settings of a request
type SettingsResolver interface {
	Resolve(ctx context.Context, cookies []*http.Cookie) (*settings.Settings, error)
}

// SettingsMiddleware resolves settings once per request and stores them in
// the echo context. Requests without any settings carry an empty value.
func SettingsMiddleware(resolver SettingsResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, err := resolver.Resolve(c.Request().Context(), c.Cookies())
			if err != nil {
				logging.Logger.Error("Failed to resolve settings", zap.Error(err))
				return response.InternalServerError(c, "Failed to resolve settings")
			}
			if s == nil {
				s = &settings.Settings{}
			}
			c.Set(settingsKey, s)
			return next(c)
		}
	}
}

// RequireAppsPath rejects requests whose settings lack an apps folder
func RequireAppsPath() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, ok := GetSettingsFromContext(c)
			if !ok || s.AppsPath == "" {
				return response.BadRequest(c, "AppDaemon path not configured. Please configure it in Settings.")
			}
			return next(c)
		}
	}
}

// RequireHomeAssistant rejects requests that cannot reach Home Assistant
func RequireHomeAssistant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, ok := GetSettingsFromContext(c)
			if !ok || !s.HasHomeAssistant() {
				return response.Unauthorized(c, "No Home Assistant settings configured")
			}
			return next(c)
		}
	}
}

// GetSettingsFromContext extracts settings from the echo context
func GetSettingsFromContext(c echo.Context) (*settings.Settings, bool) {
	s, ok := c.Get(settingsKey).(*settings.Settings)
	if !ok || s == nil {
		return nil, false
	}
	return s, true
}

// AppsPath returns the apps folder of the request, or ""
func AppsPath(c echo.Context) string {
	if s, ok := GetSettingsFromContext(c); ok {
		return s.AppsPath
	}
	return ""
}

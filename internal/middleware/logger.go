package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/adconfigurator/api/pkg/logging"
)

// IngressPathHeader is set by the Home Assistant ingress proxy
const IngressPathHeader = "X-Ingress-Path"

// LoggerMiddleware logs one structured line per request
func LoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogHeaders:   []string{IngressPathHeader},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if ingress := v.Headers[IngressPathHeader]; len(ingress) > 0 {
				fields = append(fields, zap.String("ingress_path", ingress[0]))
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				logging.Logger.Warn("Request failed", fields...)
				return nil
			}
			logging.Logger.Info("Request", fields...)
			return nil
		},
	})
}

// CORSMiddleware provides CORS support; no origins means any origin
func CORSMiddleware(allowedOrigins []string) echo.MiddlewareFunc {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, IngressPathHeader},
		AllowCredentials: allowedOrigins[0] != "*",
	})
}

// RecoverMiddleware provides panic recovery
func RecoverMiddleware() echo.MiddlewareFunc {
	return middleware.Recover()
}

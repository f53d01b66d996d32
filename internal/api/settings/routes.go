package settings

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers settings routes
func RegisterRoutes(g *echo.Group, handler *Handler) {
	g.GET("", handler.GetSettings)
	g.POST("", handler.SaveSettings)
}

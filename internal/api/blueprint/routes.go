package blueprint

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers blueprint routes
func RegisterRoutes(g *echo.Group, handler *Handler) {
	g.GET("", handler.GetBlueprints)
	g.GET("/:id", handler.GetBlueprint)
}

package instance

import (
	"github.com/labstack/echo/v4"

	"github.com/adconfigurator/api/internal/middleware"
)

// RegisterRoutes registers instance routes. Listing and preview work without
// an apps folder; everything else requires one.
func RegisterRoutes(g *echo.Group, handler *Handler) {
	g.GET("", handler.GetInstances)
	g.POST("/preview", handler.PreviewInstance)

	requireApps := middleware.RequireAppsPath()
	g.GET("/:id", handler.GetInstance, requireApps)
	g.POST("", handler.CreateInstance, requireApps)
	g.PUT("/:id", handler.UpdateInstance, requireApps)
	g.DELETE("/:id", handler.DeleteInstance, requireApps)
}

package entity

import (
	"github.com/labstack/echo/v4"

	"github.com/adconfigurator/api/internal/middleware"
)

// RegisterRoutes registers Home Assistant lookup routes
func RegisterRoutes(g *echo.Group, handler *Handler) {
	requireHA := middleware.RequireHomeAssistant()
	g.GET("/entities", handler.GetEntities, requireHA)
	g.GET("/notify-services", handler.GetNotifyServices, requireHA)
}

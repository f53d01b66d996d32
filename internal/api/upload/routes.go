package upload

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the upload route
func RegisterRoutes(g *echo.Group, handler *Handler) {
	g.POST("/upload-blueprints", handler.UploadBlueprints)
}

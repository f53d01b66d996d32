package settings

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adconfigurator/api/internal/api/common"
	"github.com/adconfigurator/api/internal/middleware"
	"github.com/adconfigurator/api/pkg/logging"
	"github.com/adconfigurator/api/pkg/response"
	"github.com/adconfigurator/api/pkg/settings"
	"github.com/adconfigurator/api/pkg/values"
)

// Handler reads and stores the browser settings
type Handler struct {
	addonMode bool
}

// NewHandler creates a new settings handler
func NewHandler(addonMode bool) *Handler {
	return &Handler{addonMode: addonMode}
}

// GetSettings handles GET /settings
func (h *Handler) GetSettings(c echo.Context) error {
	s, ok := middleware.GetSettingsFromContext(c)
	if !ok || isEmpty(s) {
		s = nil
	}
	return response.OK(c, "", common.SettingsResponse{Settings: s, AddonMode: h.addonMode})
}

// SaveSettings handles POST /settings
func (h *Handler) SaveSettings(c echo.Context) error {
	var req common.SaveSettingsRequest
	if err := c.Bind(&req); err != nil {
		logging.Logger.Debug("Failed to bind request", zap.Error(err))
		return response.BadRequest(c, "Invalid request")
	}
	req.HAURL = values.StripQuotes(req.HAURL)
	req.HAToken = values.StripQuotes(req.HAToken)
	req.AppsPath = values.StripQuotes(req.AppsPath)
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	saved := settings.Settings{
		HAURL:      req.HAURL,
		HAToken:    req.HAToken,
		AppsPath:   req.AppsPath,
		Categories: settings.NormalizeCategories(req.Categories),
	}
	cookie, err := settings.NewCookie(saved)
	if err != nil {
		logging.Logger.Error("Failed to encode settings", zap.Error(err))
		return response.InternalServerError(c, "Failed to save settings")
	}
	c.SetCookie(cookie)

	logging.Logger.Info("Settings saved",
		zap.Bool("home_assistant", saved.HasHomeAssistant()),
		zap.String("apps_path", saved.AppsPath),
		zap.Int("categories", len(saved.Categories)))
	return response.OK(c, "Settings saved", common.SettingsResponse{Settings: &saved, AddonMode: h.addonMode})
}

func isEmpty(s *settings.Settings) bool {
	return s.HAURL == "" && s.HAToken == "" && s.AppsPath == "" && len(s.Categories) == 0
}

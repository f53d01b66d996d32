package entity

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adconfigurator/api/internal/api/common"
	"github.com/adconfigurator/api/internal/middleware"
	"github.com/adconfigurator/api/pkg/homeassistant"
	"github.com/adconfigurator/api/pkg/logging"
	"github.com/adconfigurator/api/pkg/response"
)

// Handler serves Home Assistant lookups for entity and notify pickers
type Handler struct {
	clients homeassistant.Factory
}

// NewHandler creates a new entity handler
func NewHandler(clients homeassistant.Factory) *Handler {
	return &Handler{clients: clients}
}

// GetEntities handles GET /entities?domain=light,switch
func (h *Handler) GetEntities(c echo.Context) error {
	var domains []string
	if raw := c.QueryParam("domain"); raw != "" {
		domains = strings.Split(raw, ",")
	}

	entities, err := h.client(c).ListEntities(c.Request().Context(), domains)
	if err != nil {
		logging.Logger.Error("Failed to fetch entities",
			zap.Strings("domains", domains),
			zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch entities from Home Assistant")
	}
	return response.OK(c, "", common.EntitiesResponse{Entities: entities})
}

// GetNotifyServices handles GET /notify-services
func (h *Handler) GetNotifyServices(c echo.Context) error {
	services, err := h.client(c).ListNotificationServices(c.Request().Context())
	if err != nil {
		logging.Logger.Error("Failed to fetch notification services", zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch notification services from Home Assistant")
	}
	return response.OK(c, "", common.NotifyServicesResponse{Services: services})
}

// client builds a client from the request settings; RequireHomeAssistant has
// already checked they are complete
func (h *Handler) client(c echo.Context) homeassistant.API {
	s, _ := middleware.GetSettingsFromContext(c)
	return h.clients.New(s.HAURL, s.HAToken)
}

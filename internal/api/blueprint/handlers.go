package blueprint

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adconfigurator/api/internal/api/common"
	"github.com/adconfigurator/api/internal/middleware"
	"github.com/adconfigurator/api/pkg/blueprint"
	"github.com/adconfigurator/api/pkg/logging"
	"github.com/adconfigurator/api/pkg/response"
)

// Repository reads blueprints from an apps folder
type Repository interface {
	List(appsPath string) []blueprint.Summary
	Get(appsPath, id string) (*blueprint.Definition, error)
}

// Handler handles blueprint-related HTTP requests
type Handler struct {
	repo Repository
}

// NewHandler creates a new blueprint handler
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// GetBlueprints handles GET /blueprints
func (h *Handler) GetBlueprints(c echo.Context) error {
	blueprints := h.repo.List(middleware.AppsPath(c))
	return response.OK(c, "", common.BlueprintListResponse{Blueprints: blueprints})
}

// GetBlueprint handles GET /blueprints/:id
func (h *Handler) GetBlueprint(c echo.Context) error {
	id := c.Param("id")

	def, err := h.repo.Get(middleware.AppsPath(c), id)
	if err != nil {
		logging.Logger.Error("Failed to read blueprint",
			zap.String("blueprint", id),
			zap.Error(err))
		return response.InternalServerError(c, "Failed to get blueprint")
	}
	if def == nil {
		return response.NotFound(c, "Blueprint not found")
	}

	return response.OK(c, "", common.BlueprintResponse{
		BlueprintID: id,
		Blueprint:   def,
		Fields:      Fields(def),
	})
}

// Fields lists the leaf inputs of def in document order with their selector
// kind
func Fields(def *blueprint.Definition) []common.FieldInfo {
	flat := blueprint.Flatten(def.Input)
	keys := blueprint.Keys(def.Input)

	fields := make([]common.FieldInfo, 0, len(keys))
	for _, key := range keys {
		input := flat[key]
		field := common.FieldInfo{Key: key}
		if input != nil {
			field.Name = input.Name
			field.Default = input.Default
			if input.Selector != nil {
				field.Kind = string(input.Selector.Kind)
			}
		}
		fields = append(fields, field)
	}
	return fields
}

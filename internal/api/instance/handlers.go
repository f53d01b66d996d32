package instance

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adconfigurator/api/internal/api/common"
	"github.com/adconfigurator/api/internal/middleware"
	"github.com/adconfigurator/api/pkg/apps"
	"github.com/adconfigurator/api/pkg/blueprint"
	"github.com/adconfigurator/api/pkg/logging"
	"github.com/adconfigurator/api/pkg/naming"
	"github.com/adconfigurator/api/pkg/response"
	"github.com/adconfigurator/api/pkg/values"
)

// Store persists instances in apps.yaml
type Store interface {
	List(appsPath string) ([]apps.Summary, error)
	Get(appsPath, id string) (*apps.Instance, error)
	IDs(appsPath string) ([]string, error)
	Create(appsPath, id, module, class string, config map[string]interface{}, meta apps.Meta) (*apps.Instance, error)
	Update(appsPath, id string, config map[string]interface{}, opts apps.UpdateOptions) (*apps.Instance, error)
	Delete(appsPath, id string) error
}

// Handler handles instance-related HTTP requests
type Handler struct {
	store      Store
	blueprints apps.BlueprintGetter
}

// NewHandler creates a new instance handler
func NewHandler(store Store, blueprints apps.BlueprintGetter) *Handler {
	return &Handler{store: store, blueprints: blueprints}
}

// GetInstances handles GET /instances
func (h *Handler) GetInstances(c echo.Context) error {
	s, _ := middleware.GetSettingsFromContext(c)
	if s == nil || s.AppsPath == "" {
		return response.OK(c, "", common.InstanceListResponse{
			Instances:     []apps.Summary{},
			NeedsSettings: true,
			Categories:    []string{},
		})
	}

	instances, err := h.store.List(s.AppsPath)
	if err != nil {
		return common.InstanceError(c, "list", err)
	}
	return response.OK(c, "", common.InstanceListResponse{
		Instances:  instances,
		Categories: categories(c),
	})
}

// GetInstance handles GET /instances/:id
func (h *Handler) GetInstance(c echo.Context) error {
	appsPath := middleware.AppsPath(c)
	id := c.Param("id")

	instance, err := h.store.Get(appsPath, id)
	if err != nil {
		return common.InstanceError(c, "get", err)
	}
	if instance == nil {
		return response.NotFound(c, "Instance not found")
	}

	var def *blueprint.Definition
	if instance.BlueprintID != "" {
		def = h.blueprint(appsPath, instance.BlueprintID)
	}

	return response.OK(c, "", common.InstanceResponse{
		Instance:   jsonSafe(instance),
		Blueprint:  def,
		Categories: categories(c),
	})
}

// CreateInstance handles POST /instances
func (h *Handler) CreateInstance(c echo.Context) error {
	var req common.CreateInstanceRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}
	appsPath := middleware.AppsPath(c)

	def, err := h.blueprints.Get(appsPath, req.BlueprintID)
	if err != nil {
		logging.Logger.Error("Failed to read blueprint",
			zap.String("blueprint", req.BlueprintID),
			zap.Error(err))
		return response.InternalServerError(c, "Failed to get blueprint")
	}
	if def == nil {
		return response.NotFound(c, "Blueprint not found")
	}

	id, err := h.instanceID(appsPath, req.BlueprintID, req.InstanceName)
	if err != nil {
		return common.InstanceError(c, "create", err)
	}

	typed := values.TypeValues(blueprint.Flatten(def.Input), req.Config)
	module, class := naming.ModuleAndClass(req.BlueprintID)

	instance, err := h.store.Create(appsPath, id, module, class, typed, apps.Meta{
		BlueprintID: req.BlueprintID,
		Category:    req.Category,
		Tags:        req.Tags,
		Order:       blueprint.Keys(def.Input),
	})
	if err != nil {
		return common.InstanceError(c, "create", err)
	}

	logging.Logger.Info("Instance created",
		zap.String("instance", id),
		zap.String("blueprint", req.BlueprintID),
		zap.String("ip", c.RealIP()))
	return response.Created(c, "Instance \""+id+"\" created successfully", jsonSafe(instance))
}

// UpdateInstance handles PUT /instances/:id
func (h *Handler) UpdateInstance(c echo.Context) error {
	var req common.UpdateInstanceRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}
	appsPath := middleware.AppsPath(c)
	id := c.Param("id")

	existing, err := h.store.Get(appsPath, id)
	if err != nil {
		return common.InstanceError(c, "update", err)
	}
	if existing == nil {
		return response.NotFound(c, "Instance not found")
	}

	var typed map[string]interface{}
	if def := h.blueprint(appsPath, existing.BlueprintID); def != nil {
		typed = values.TypeValues(blueprint.Flatten(def.Input), req.Config)
	} else {
		typed = values.TypeValuesLoose(req.Config)
	}

	instance, err := h.store.Update(appsPath, id, typed, apps.UpdateOptions{
		NewID:    req.NewInstanceID,
		Category: req.Category,
		Tags:     req.Tags,
	})
	if err != nil {
		return common.InstanceError(c, "update", err)
	}
	return response.OK(c, "Instance updated", jsonSafe(instance))
}

// DeleteInstance handles DELETE /instances/:id
func (h *Handler) DeleteInstance(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Delete(middleware.AppsPath(c), id); err != nil {
		return common.InstanceError(c, "delete", err)
	}
	logging.Logger.Info("Instance deleted", zap.String("instance", id))
	return response.OK(c, "Instance deleted", nil)
}

// PreviewInstance handles POST /instances/preview
func (h *Handler) PreviewInstance(c echo.Context) error {
	var req common.PreviewInstanceRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}
	appsPath := middleware.AppsPath(c)

	def := h.blueprint(appsPath, req.BlueprintID)
	if def == nil {
		return response.NotFound(c, "Blueprint not found")
	}

	id := req.InstanceName
	if id == "" {
		var existing []string
		if appsPath != "" {
			if ids, err := h.store.IDs(appsPath); err == nil {
				existing = ids
			}
		}
		id = naming.GenerateInstanceID(req.BlueprintID, existing)
	}

	typed := values.TypeValues(blueprint.Flatten(def.Input), req.Config)
	rendered, err := apps.RenderPreview(id, req.BlueprintID, typed, blueprint.Keys(def.Input))
	if err != nil {
		logging.Logger.Error("Failed to render preview", zap.Error(err))
		return response.InternalServerError(c, "Failed to render preview")
	}
	return response.OK(c, "", common.PreviewResponse{InstanceID: id, YAML: rendered})
}

// instanceID returns the requested id, or a fresh one derived from the
// blueprint
func (h *Handler) instanceID(appsPath, blueprintID, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	ids, err := h.store.IDs(appsPath)
	if err != nil {
		return "", err
	}
	return naming.GenerateInstanceID(blueprintID, ids), nil
}

// blueprint loads a blueprint, treating read failures as absent
func (h *Handler) blueprint(appsPath, id string) *blueprint.Definition {
	if id == "" {
		return nil
	}
	def, err := h.blueprints.Get(appsPath, id)
	if err != nil {
		logging.Logger.Warn("Failed to read blueprint",
			zap.String("blueprint", id),
			zap.Error(err))
		return nil
	}
	return def
}

func categories(c echo.Context) []string {
	if s, ok := middleware.GetSettingsFromContext(c); ok && s.Categories != nil {
		return s.Categories
	}
	return []string{}
}

// jsonSafe replaces values JSON cannot carry, such as NaN from a
// non-numeric number input
func jsonSafe(instance *apps.Instance) *apps.Instance {
	if instance == nil {
		return nil
	}
	safe := *instance
	safe.Config = values.JSONSafe(instance.Config)
	return &safe
}

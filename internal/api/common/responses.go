package common

import (
	"github.com/adconfigurator/api/pkg/apps"
	"github.com/adconfigurator/api/pkg/blueprint"
	"github.com/adconfigurator/api/pkg/homeassistant"
	"github.com/adconfigurator/api/pkg/settings"
	"github.com/adconfigurator/api/pkg/upload"
)

// BlueprintListResponse lists the blueprints of the apps folder
type BlueprintListResponse struct {
	Blueprints []blueprint.Summary `json:"blueprints"`
}

// FieldInfo describes one flattened input for form rendering
type FieldInfo struct {
	Key     string      `json:"key"`
	Name    string      `json:"name,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Default interface{} `json:"default,omitempty"`
}

// BlueprintResponse is a single blueprint with its flattened fields
type BlueprintResponse struct {
	BlueprintID string                `json:"blueprintId"`
	Blueprint   *blueprint.Definition `json:"blueprint"`
	Fields      []FieldInfo           `json:"fields"`
}

// InstanceListResponse lists the managed instances
type InstanceListResponse struct {
	Instances     []apps.Summary `json:"instances"`
	NeedsSettings bool           `json:"needsSettings"`
	Categories    []string       `json:"categories"`
}

// InstanceResponse is one instance together with its blueprint, if any
type InstanceResponse struct {
	Instance   *apps.Instance        `json:"instance"`
	Blueprint  *blueprint.Definition `json:"blueprint"`
	Categories []string              `json:"categories"`
}

// PreviewResponse carries the rendered YAML
type PreviewResponse struct {
	InstanceID string `json:"instanceId"`
	YAML       string `json:"yaml"`
}

// EntitiesResponse lists Home Assistant entities
type EntitiesResponse struct {
	Entities []homeassistant.Entity `json:"entities"`
}

// NotifyServicesResponse lists notification targets
type NotifyServicesResponse struct {
	Services []homeassistant.NotifyService `json:"services"`
}

// SettingsResponse reports the effective settings
type SettingsResponse struct {
	Settings  *settings.Settings `json:"settings"`
	AddonMode bool               `json:"addonMode"`
}

// UploadResponse reports what an archive upload wrote
type UploadResponse struct {
	Target string `json:"target"`
	*upload.Result
}

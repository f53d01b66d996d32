package common

// CreateInstanceRequest for creating an instance from a blueprint
type CreateInstanceRequest struct {
	BlueprintID string                 `json:"blueprintId" validate:"required"`
	Config      map[string]interface{} `json:"config"`
	// Empty InstanceName means a generated id
	InstanceName string   `json:"instanceName,omitempty" validate:"omitempty,instanceid"`
	Category     string   `json:"category,omitempty"`
	Tags         []string `json:"tags,omitempty" validate:"omitempty,dive,required"`
}

// UpdateInstanceRequest for replacing the configuration of an instance
type UpdateInstanceRequest struct {
	Config        map[string]interface{} `json:"config"`
	NewInstanceID string                 `json:"newInstanceId,omitempty" validate:"omitempty,instanceid"`
	Category      string                 `json:"category,omitempty"`
	Tags          []string               `json:"tags,omitempty" validate:"omitempty,dive,required"`
}

// PreviewInstanceRequest for rendering the YAML a create would write
type PreviewInstanceRequest struct {
	BlueprintID  string                 `json:"blueprintId" validate:"required"`
	Config       map[string]interface{} `json:"config"`
	InstanceName string                 `json:"instanceName,omitempty" validate:"omitempty,instanceid"`
}

// SaveSettingsRequest for storing settings in the browser
type SaveSettingsRequest struct {
	HAURL      string   `json:"haUrl" validate:"omitempty,url"`
	HAToken    string   `json:"haToken"`
	AppsPath   string   `json:"appdaemonPath"`
	Categories []string `json:"categories"`
}

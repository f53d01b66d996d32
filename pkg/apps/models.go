package apps

import "errors"

const (
	// FileName is the instance document inside the apps folder
	FileName = "apps.yaml"

	keyModule    = "module"
	keyClass     = "class"
	keyBlueprint = "_blueprint"
	keyCategory  = "_category"
	keyTags      = "_tags"
)

// reservedKeys are stored beside the configuration, never inside it
var reservedKeys = map[string]bool{
	keyModule:    true,
	keyClass:     true,
	keyBlueprint: true,
	keyCategory:  true,
	keyTags:      true,
}

// IsReserved reports whether key is an instance field rather than configuration
func IsReserved(key string) bool {
	return reservedKeys[key]
}

var (
	ErrNotFound            = errors.New("instance not found")
	ErrDuplicateIdentifier = errors.New("instance already exists")
)

// Instance is a single app entry of apps.yaml
type Instance struct {
	ID          string                 `json:"id"`
	Module      string                 `json:"module"`
	Class       string                 `json:"class"`
	BlueprintID string                 `json:"blueprintId,omitempty"`
	Category    string                 `json:"category,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Config      map[string]interface{} `json:"config"`
}

// Summary is the listing view of an instance
type Summary struct {
	ID            string   `json:"id"`
	Module        string   `json:"module"`
	Class         string   `json:"class"`
	BlueprintID   string   `json:"blueprintId,omitempty"`
	BlueprintName string   `json:"blueprintName,omitempty"`
	ConfigCount   int      `json:"configCount"`
	Category      string   `json:"category,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// Meta carries the optional bookkeeping fields of an instance
type Meta struct {
	BlueprintID string
	Category    string
	Tags        []string
	// Order lists config keys in the order they should be written;
	// keys not listed follow alphabetically
	Order []string
}

// UpdateOptions controls Update. An empty NewID keeps the current id.
type UpdateOptions struct {
	NewID    string
	Category string
	Tags     []string
}

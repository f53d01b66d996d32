package apps

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/adconfigurator/api/pkg/naming"
)

// RenderPreview renders the apps.yaml snippet that saving config for the
// given blueprint under id would produce. Module and class are derived the
// same way the create path derives them.
func RenderPreview(id, blueprintID string, config map[string]interface{}, keyOrder []string) (string, error) {
	module, class := naming.ModuleAndClass(blueprintID)
	body, err := buildBody(module, class, Meta{BlueprintID: blueprintID}, config, keyOrder)
	if err != nil {
		return "", err
	}

	root := &yaml.Node{
		Kind: yaml.DocumentNode,
		Content: []*yaml.Node{{
			Kind:    yaml.MappingNode,
			Tag:     "!!map",
			Content: []*yaml.Node{scalar(id), body},
		}},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", fmt.Errorf("failed to render preview: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to render preview: %w", err)
	}
	return buf.String(), nil
}

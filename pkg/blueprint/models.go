package blueprint

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/adconfigurator/api/pkg/selector"
)

// Metadata describes a blueprint
type Metadata struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Domain      string `yaml:"domain" json:"domain"`
	Author      string `yaml:"author,omitempty" json:"author,omitempty"`
	MinVersion  string `yaml:"min_version,omitempty" json:"minVersion,omitempty"`
}

// Definition is a parsed blueprint.yaml with its inputs hoisted to the root
type Definition struct {
	Blueprint Metadata `json:"blueprint"`
	Input     Inputs   `json:"input"`
}

// Input defines a single configurable value
type Input struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Default     interface{}        `json:"default,omitempty"`
	Selector    *selector.Selector `json:"selector,omitempty"`
}

// Section groups nested inputs for display
type Section struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Collapsed   bool   `json:"collapsed,omitempty"`
	Input       Inputs `json:"input"`
}

// Node is either an Input or a Section, keyed by its input key
type Node struct {
	Key     string   `json:"key"`
	Input   *Input   `json:"input,omitempty"`
	Section *Section `json:"section,omitempty"`
}

// IsSection reports whether the node holds nested inputs
func (n Node) IsSection() bool {
	return n.Section != nil
}

// Inputs is an ordered input mapping
type Inputs []Node

// UnmarshalYAML keeps the document order of the input mapping and
// classifies each entry as a section (has an input key) or an input.
func (in *Inputs) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.AliasNode && value.Alias != nil {
		value = value.Alias
	}
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*in = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("input must be a mapping, got node kind %d", value.Kind)
	}

	nodes := make(Inputs, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var key string
		if err := value.Content[i].Decode(&key); err != nil {
			return fmt.Errorf("failed to decode input key: %w", err)
		}
		node, err := decodeNode(key, value.Content[i+1])
		if err != nil {
			return fmt.Errorf("input %q: %w", key, err)
		}
		nodes = append(nodes, node)
	}
	*in = nodes
	return nil
}

// Get returns the top-level node with the given key
func (in Inputs) Get(key string) (Node, bool) {
	for _, n := range in {
		if n.Key == key {
			return n, true
		}
	}
	return Node{}, false
}

// MarshalJSON renders the inputs as an ordered list of nodes
func (in Inputs) MarshalJSON() ([]byte, error) {
	if in == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Node(in))
}

func decodeNode(key string, value *yaml.Node) (Node, error) {
	if value.Kind == yaml.AliasNode && value.Alias != nil {
		value = value.Alias
	}
	if value.Kind != yaml.MappingNode {
		// "key:" with no body is an untyped text input
		return Node{Key: key, Input: &Input{}}, nil
	}

	if hasKey(value, "input") {
		var raw struct {
			Name        string `yaml:"name"`
			Description string `yaml:"description"`
			Icon        string `yaml:"icon"`
			Collapsed   bool   `yaml:"collapsed"`
			Input       Inputs `yaml:"input"`
		}
		if err := value.Decode(&raw); err != nil {
			return Node{}, err
		}
		return Node{Key: key, Section: &Section{
			Name:        raw.Name,
			Description: raw.Description,
			Icon:        raw.Icon,
			Collapsed:   raw.Collapsed,
			Input:       raw.Input,
		}}, nil
	}

	var raw struct {
		Name        string      `yaml:"name"`
		Description string      `yaml:"description"`
		Default     interface{} `yaml:"default"`
		Selector    yaml.Node   `yaml:"selector"`
	}
	if err := value.Decode(&raw); err != nil {
		return Node{}, err
	}
	input := &Input{
		Name:        raw.Name,
		Description: raw.Description,
		Default:     raw.Default,
	}
	// An unreadable selector degrades to freeform text
	if sel, err := selector.Parse(&raw.Selector); err == nil {
		input.Selector = sel
	}
	return Node{Key: key, Input: input}, nil
}

func hasKey(mapping *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return true
		}
	}
	return false
}

// Summary is the listing view of a blueprint
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Domain      string `json:"domain"`
	Author      string `json:"author,omitempty"`
	InputCount  int    `json:"inputCount"`
}

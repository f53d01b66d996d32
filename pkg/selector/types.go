package selector

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// StringList accepts either a single string or a list of strings
type StringList []string

// UnmarshalYAML decodes a scalar or a sequence of scalars
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s != "" {
			*l = StringList{s}
		}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("unsupported node kind %d for string list", value.Kind)
	}
}

// Option is a single choice of a select selector
type Option struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// UnmarshalYAML accepts a bare string (used as both label and value) or a label/value mapping
func (o *Option) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		o.Label, o.Value = s, s
		return nil
	case yaml.MappingNode:
		type rawOption Option
		var raw rawOption
		if err := value.Decode(&raw); err != nil {
			return fmt.Errorf("decode select option: %w", err)
		}
		if raw.Label == "" {
			raw.Label = raw.Value
		}
		*o = Option(raw)
		return nil
	default:
		return fmt.Errorf("unsupported node kind %d for select option", value.Kind)
	}
}

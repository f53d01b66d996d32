package selector

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind is the discriminant key of a blueprint selector
type Kind string

const (
	KindEntity       Kind = "entity"
	KindNumber       Kind = "number"
	KindText         Kind = "text"
	KindBoolean      Kind = "boolean"
	KindSelect       Kind = "select"
	KindNotification Kind = "notify"
)

var knownKinds = map[Kind]bool{
	KindEntity:       true,
	KindNumber:       true,
	KindText:         true,
	KindBoolean:      true,
	KindSelect:       true,
	KindNotification: true,
}

// ErrInvalidShape is returned when a selector is not a mapping with exactly one key
var ErrInvalidShape = errors.New("selector must be a mapping with exactly one key")

// Selector is the parsed form of a blueprint input selector.
// Exactly one of the option pointers is set for supported kinds; unsupported
// kinds keep their raw fields in Raw.
type Selector struct {
	Kind   Kind           `json:"kind"`
	Entity *EntityOptions `json:"entity,omitempty"`
	Number *NumberOptions `json:"number,omitempty"`
	Text   *TextOptions   `json:"text,omitempty"`
	Select *SelectOptions `json:"select,omitempty"`
	Raw    interface{}    `json:"raw,omitempty"`
}

// Supported reports whether the selector kind is one this service understands
func (s *Selector) Supported() bool {
	return s != nil && knownKinds[s.Kind]
}

// Is reports whether the selector is of the given kind. A nil selector is never any kind.
func (s *Selector) Is(kind Kind) bool {
	return s != nil && s.Kind == kind
}

// EntityOptions configures an entity selector
type EntityOptions struct {
	Domain      StringList `yaml:"domain,omitempty" json:"domain,omitempty"`
	DeviceClass StringList `yaml:"device_class,omitempty" json:"deviceClass,omitempty"`
	Multiple    bool       `yaml:"multiple,omitempty" json:"multiple,omitempty"`
}

// NumberOptions configures a number selector
type NumberOptions struct {
	Min  *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max  *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Step *float64 `yaml:"step,omitempty" json:"step,omitempty"`
	Unit string   `yaml:"unit_of_measurement,omitempty" json:"unit,omitempty"`
	Mode string   `yaml:"mode,omitempty" json:"mode"`
}

// TextOptions configures a text selector
type TextOptions struct {
	Multiline bool   `yaml:"multiline,omitempty" json:"multiline,omitempty"`
	Type      string `yaml:"type,omitempty" json:"type"`
}

// SelectOptions configures a select selector
type SelectOptions struct {
	Options     []Option `yaml:"options" json:"options"`
	Multiple    bool     `yaml:"multiple,omitempty" json:"multiple,omitempty"`
	CustomValue bool     `yaml:"custom_value,omitempty" json:"customValue,omitempty"`
}

// Parse classifies a selector node. A nil or null node yields a nil selector.
// Kind-specific fields are decoded best effort: fields that fail to decode
// leave the options at their defaults rather than rejecting the selector.
func Parse(node *yaml.Node) (*Selector, error) {
	if node == nil || node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return nil, nil
	}
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, ErrInvalidShape
	}

	var key string
	if err := node.Content[0].Decode(&key); err != nil {
		return nil, fmt.Errorf("failed to decode selector kind: %w", err)
	}
	body := node.Content[1]

	sel := &Selector{Kind: Kind(key)}
	switch sel.Kind {
	case KindEntity:
		opts := &EntityOptions{}
		_ = decodeOptional(body, opts)
		sel.Entity = opts
	case KindNumber:
		opts := &NumberOptions{}
		_ = decodeOptional(body, opts)
		if opts.Mode == "" {
			opts.Mode = "slider"
		}
		sel.Number = opts
	case KindText:
		opts := &TextOptions{}
		_ = decodeOptional(body, opts)
		if opts.Type == "" {
			opts.Type = "text"
		}
		sel.Text = opts
	case KindSelect:
		opts := &SelectOptions{}
		_ = decodeOptional(body, opts)
		sel.Select = opts
	case KindBoolean, KindNotification:
	default:
		var raw interface{}
		_ = decodeOptional(body, &raw)
		sel.Raw = raw
	}

	return sel, nil
}

func decodeOptional(node *yaml.Node, dest interface{}) error {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	return node.Decode(dest)
}

package apps

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// document is apps.yaml held as a node tree so entries this package does not
// manage keep their content and position across rewrites
type document struct {
	root    *yaml.Node
	mapping *yaml.Node
}

func newDocument() *document {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	return &document{
		root:    &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mapping}},
		mapping: mapping,
	}
}

func documentPath(appsPath string) string {
	return filepath.Join(appsPath, FileName)
}

// readDocument loads apps.yaml; a missing or empty file is an empty document
func readDocument(appsPath string) (*document, error) {
	data, err := os.ReadFile(documentPath(appsPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newDocument(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return newDocument(), nil
	}

	top := root.Content[0]
	switch {
	case top.Kind == yaml.MappingNode:
	case top.Kind == yaml.ScalarNode && top.Tag == "!!null":
		top.Kind, top.Tag, top.Value = yaml.MappingNode, "!!map", ""
	default:
		return nil, fmt.Errorf("%s must contain a mapping at the top level", FileName)
	}
	return &document{root: &root, mapping: top}, nil
}

// write serializes the whole document, creating the apps folder if needed
func (d *document) write(appsPath string) error {
	if err := os.MkdirAll(appsPath, 0755); err != nil {
		return fmt.Errorf("failed to create apps folder: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return fmt.Errorf("failed to encode %s: %w", FileName, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode %s: %w", FileName, err)
	}

	if err := os.WriteFile(documentPath(appsPath), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return nil
}

// index returns the position of the key node for id, or -1
func (d *document) index(id string) int {
	for i := 0; i+1 < len(d.mapping.Content); i += 2 {
		if d.mapping.Content[i].Value == id {
			return i
		}
	}
	return -1
}

func (d *document) has(id string) bool {
	return d.index(id) >= 0
}

func (d *document) get(id string) *yaml.Node {
	i := d.index(id)
	if i < 0 {
		return nil
	}
	return resolve(d.mapping.Content[i+1])
}

// set replaces the body of id in place, or appends a new entry
func (d *document) set(id string, body *yaml.Node) {
	if i := d.index(id); i >= 0 {
		d.mapping.Content[i+1] = body
		return
	}
	d.mapping.Content = append(d.mapping.Content, scalar(id), body)
}

// rename moves the entry stored under from to the key to, keeping its position
func (d *document) rename(from, to string, body *yaml.Node) {
	i := d.index(from)
	if i < 0 {
		d.set(to, body)
		return
	}
	d.mapping.Content[i] = scalar(to)
	d.mapping.Content[i+1] = body
}

func (d *document) remove(id string) {
	i := d.index(id)
	if i < 0 {
		return
	}
	d.mapping.Content = append(d.mapping.Content[:i], d.mapping.Content[i+2:]...)
}

func (d *document) ids() []string {
	ids := make([]string, 0, len(d.mapping.Content)/2)
	for i := 0; i+1 < len(d.mapping.Content); i += 2 {
		ids = append(ids, d.mapping.Content[i].Value)
	}
	return ids
}

func resolve(node *yaml.Node) *yaml.Node {
	if node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		return node.Alias
	}
	return node
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// buildBody renders an instance body: module and class first, then the
// bookkeeping fields that are set, then config values that are neither nil
// nor empty strings. keyOrder lists config keys whose position should be
// kept; remaining keys follow in sorted order.
func buildBody(module, class string, meta Meta, config map[string]interface{}, keyOrder []string) (*yaml.Node, error) {
	body := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	body.Content = append(body.Content, scalar(keyModule), scalar(module), scalar(keyClass), scalar(class))

	if meta.BlueprintID != "" {
		body.Content = append(body.Content, scalar(keyBlueprint), scalar(meta.BlueprintID))
	}
	if meta.Category != "" {
		body.Content = append(body.Content, scalar(keyCategory), scalar(meta.Category))
	}
	if len(meta.Tags) > 0 {
		tags := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, tag := range meta.Tags {
			tags.Content = append(tags.Content, scalar(tag))
		}
		body.Content = append(body.Content, scalar(keyTags), tags)
	}

	for _, key := range orderedKeys(config, keyOrder) {
		value := config[key]
		if !storable(value) || IsReserved(key) {
			continue
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(value); err != nil {
			return nil, fmt.Errorf("failed to encode config value %q: %w", key, err)
		}
		body.Content = append(body.Content, scalar(key), valueNode)
	}
	return body, nil
}

func storable(value interface{}) bool {
	if value == nil {
		return false
	}
	if s, ok := value.(string); ok && s == "" {
		return false
	}
	return true
}

func orderedKeys(config map[string]interface{}, keyOrder []string) []string {
	keys := make([]string, 0, len(config))
	seen := make(map[string]bool, len(config))
	for _, key := range keyOrder {
		if _, ok := config[key]; ok && !seen[key] {
			keys = append(keys, key)
			seen[key] = true
		}
	}

	var rest []string
	for key := range config {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// filterConfig keeps the values buildBody would store
func filterConfig(config map[string]interface{}) map[string]interface{} {
	stored := make(map[string]interface{}, len(config))
	for key, value := range config {
		if storable(value) && !IsReserved(key) {
			stored[key] = value
		}
	}
	return stored
}

// Package apps manages AppDaemon instances stored in apps.yaml.
//
// Every mutating operation is a single read-modify-write of the whole
// document. There is no locking: two concurrent writers can lose one
// another's change.
package apps

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/adconfigurator/api/pkg/blueprint"
	"github.com/adconfigurator/api/pkg/logging"
)

// BlueprintGetter resolves blueprint definitions for display names
type BlueprintGetter interface {
	Get(appsPath, id string) (*blueprint.Definition, error)
}

// Store reads and writes instances of an apps folder
type Store struct {
	blueprints BlueprintGetter
}

// NewStore creates a store; blueprints may be nil, in which case listings
// carry no blueprint names
func NewStore(blueprints BlueprintGetter) *Store {
	return &Store{blueprints: blueprints}
}

// List returns every entry that has both a module and a class
func (s *Store) List(appsPath string) ([]Summary, error) {
	doc, err := readDocument(appsPath)
	if err != nil {
		return nil, err
	}

	summaries := []Summary{}
	for _, id := range doc.ids() {
		fields, ok := extract(doc.get(id))
		if !ok {
			continue
		}
		summary := Summary{
			ID:          id,
			Module:      fields.module,
			Class:       fields.class,
			BlueprintID: fields.blueprintID,
			ConfigCount: len(fields.configKeys),
			Category:    fields.category,
			Tags:        fields.tags,
		}
		if fields.blueprintID != "" {
			summary.BlueprintName = s.blueprintName(appsPath, fields.blueprintID)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Get returns the instance stored under id, or nil when the entry is absent
// or lacks a module or class
func (s *Store) Get(appsPath, id string) (*Instance, error) {
	doc, err := readDocument(appsPath)
	if err != nil {
		return nil, err
	}
	fields, ok := extract(doc.get(id))
	if !ok {
		return nil, nil
	}
	return fields.instance(id), nil
}

// IDs returns every top-level key of the document, managed or not
func (s *Store) IDs(appsPath string) ([]string, error) {
	doc, err := readDocument(appsPath)
	if err != nil {
		return nil, err
	}
	return doc.ids(), nil
}

// Create adds a new instance. It fails with ErrDuplicateIdentifier when id is
// already a key of the document.
func (s *Store) Create(appsPath, id, module, class string, config map[string]interface{}, meta Meta) (*Instance, error) {
	doc, err := readDocument(appsPath)
	if err != nil {
		return nil, err
	}
	if doc.has(id) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateIdentifier, id)
	}

	body, err := buildBody(module, class, meta, config, meta.Order)
	if err != nil {
		return nil, err
	}
	doc.set(id, body)
	if err := doc.write(appsPath); err != nil {
		return nil, err
	}
	logging.LogWrite("create", appsPath, id)

	return &Instance{
		ID:          id,
		Module:      module,
		Class:       class,
		BlueprintID: meta.BlueprintID,
		Category:    meta.Category,
		Tags:        meta.Tags,
		Config:      filterConfig(config),
	}, nil
}

// Update replaces the configuration, category and tags of an instance,
// keeping its module, class and blueprint reference. A different
// opts.NewID renames the entry in the same write.
func (s *Store) Update(appsPath, id string, config map[string]interface{}, opts UpdateOptions) (*Instance, error) {
	doc, err := readDocument(appsPath)
	if err != nil {
		return nil, err
	}
	existing, ok := extract(doc.get(id))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	finalID := id
	if opts.NewID != "" && opts.NewID != id {
		if doc.has(opts.NewID) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateIdentifier, opts.NewID)
		}
		finalID = opts.NewID
	}

	meta := Meta{
		BlueprintID: existing.blueprintID,
		Category:    opts.Category,
		Tags:        opts.Tags,
	}
	body, err := buildBody(existing.module, existing.class, meta, config, existing.configKeys)
	if err != nil {
		return nil, err
	}

	if finalID != id {
		doc.rename(id, finalID, body)
	} else {
		doc.set(id, body)
	}
	if err := doc.write(appsPath); err != nil {
		return nil, err
	}
	if finalID != id {
		logging.Logger.Info("Instance renamed",
			zap.String("from", id),
			zap.String("to", finalID))
	}
	logging.LogWrite("update", appsPath, finalID)

	return &Instance{
		ID:          finalID,
		Module:      existing.module,
		Class:       existing.class,
		BlueprintID: existing.blueprintID,
		Category:    opts.Category,
		Tags:        opts.Tags,
		Config:      filterConfig(config),
	}, nil
}

// Delete removes the entry stored under id
func (s *Store) Delete(appsPath, id string) error {
	doc, err := readDocument(appsPath)
	if err != nil {
		return err
	}
	if !doc.has(id) {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	doc.remove(id)
	if err := doc.write(appsPath); err != nil {
		return err
	}
	logging.LogWrite("delete", appsPath, id)
	return nil
}

func (s *Store) blueprintName(appsPath, blueprintID string) string {
	if s.blueprints == nil {
		return ""
	}
	def, err := s.blueprints.Get(appsPath, blueprintID)
	if err != nil {
		logging.Logger.Debug("Failed to resolve blueprint name",
			zap.String("blueprint", blueprintID),
			zap.Error(err))
		return ""
	}
	if def == nil {
		return ""
	}
	return def.Blueprint.Name
}

// entryFields is the decoded form of one document entry
type entryFields struct {
	module      string
	class       string
	blueprintID string
	category    string
	tags        []string
	configKeys  []string
	config      map[string]interface{}
}

func (f *entryFields) instance(id string) *Instance {
	return &Instance{
		ID:          id,
		Module:      f.module,
		Class:       f.class,
		BlueprintID: f.blueprintID,
		Category:    f.category,
		Tags:        f.tags,
		Config:      f.config,
	}
}

// extract decodes an entry body; ok is false unless the body is a mapping
// with a non-empty module and class
func extract(body *yaml.Node) (*entryFields, bool) {
	if body == nil || body.Kind != yaml.MappingNode {
		return nil, false
	}

	fields := &entryFields{config: map[string]interface{}{}}
	for i := 0; i+1 < len(body.Content); i += 2 {
		key := body.Content[i].Value
		value := resolve(body.Content[i+1])

		switch key {
		case keyModule:
			fields.module = scalarValue(value)
		case keyClass:
			fields.class = scalarValue(value)
		case keyBlueprint:
			fields.blueprintID = scalarValue(value)
		case keyCategory:
			fields.category = scalarValue(value)
		case keyTags:
			var tags []string
			if err := value.Decode(&tags); err == nil {
				fields.tags = tags
			}
		default:
			var decoded interface{}
			if err := value.Decode(&decoded); err != nil {
				decoded = value.Value
			}
			fields.config[key] = decoded
			fields.configKeys = append(fields.configKeys, key)
		}
	}

	if fields.module == "" || fields.class == "" {
		return nil, false
	}
	return fields, true
}

func scalarValue(node *yaml.Node) string {
	if node == nil || node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return ""
	}
	return node.Value
}

package blueprint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/adconfigurator/api/pkg/logging"
)

const (
	// FileName is the blueprint file expected in every blueprint directory
	FileName = "blueprint.yaml"

	// DefaultFallbackDir is used when no apps folder is configured
	DefaultFallbackDir = "blueprints"
)

// Repository reads blueprint definitions from an apps folder.
// Nothing is cached: every call reads from disk.
type Repository struct {
	fallbackDir string
}

// NewRepository creates a repository that reads from fallbackDir whenever
// callers pass an empty apps folder path
func NewRepository(fallbackDir string) *Repository {
	if fallbackDir == "" {
		fallbackDir = DefaultFallbackDir
	}
	return &Repository{fallbackDir: fallbackDir}
}

// Dir resolves the folder blueprints are read from
func (r *Repository) Dir(appsPath string) string {
	if appsPath != "" {
		return appsPath
	}
	return r.fallbackDir
}

// List returns a summary of every subdirectory holding a parsable blueprint,
// sorted by id. Directories without a blueprint are skipped. A missing folder
// yields an empty list; other filesystem errors are logged and also yield an
// empty list.
func (r *Repository) List(appsPath string) []Summary {
	dir := r.Dir(appsPath)
	summaries := []Summary{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Logger.Warn("Failed to read blueprints directory",
				zap.String("dir", dir),
				zap.Error(err))
		}
		return summaries
	}

	for _, entry := range entries {
		if !isDir(dir, entry) {
			continue
		}
		def, err := readDefinition(filepath.Join(dir, entry.Name(), FileName))
		if err != nil || def == nil {
			continue
		}
		summaries = append(summaries, Summary{
			ID:          entry.Name(),
			Name:        def.Blueprint.Name,
			Description: def.Blueprint.Description,
			Domain:      def.Blueprint.Domain,
			Author:      def.Blueprint.Author,
			InputCount:  len(def.Input),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})
	return summaries
}

// Get reads the blueprint with the given id. It returns nil without error
// when the blueprint does not exist or cannot be parsed; only unexpected
// filesystem errors are returned.
func (r *Repository) Get(appsPath, id string) (*Definition, error) {
	if !validID(id) {
		return nil, nil
	}
	path := filepath.Join(r.Dir(appsPath), id, FileName)
	def, err := readDefinition(path)
	if err != nil {
		if errors.Is(err, errMalformed) {
			logging.Logger.Debug("Ignoring malformed blueprint",
				zap.String("path", path),
				zap.Error(err))
			return nil, nil
		}
		return nil, err
	}
	return def, nil
}

var errMalformed = errors.New("malformed blueprint")

// readDefinition returns (nil, nil) for a missing file and wraps parse
// failures in errMalformed
func readDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read blueprint file: %w", err)
	}

	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return def, nil
}

// Parse decodes blueprint.yaml content. Inputs may live at the document root
// or under the blueprint key; metadata is read from the blueprint key, or
// from the root when that key is absent.
func Parse(data []byte) (*Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse blueprint: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("blueprint document must be a mapping")
	}

	var raw struct {
		Metadata  `yaml:",inline"`
		Input     *Inputs `yaml:"input"`
		Blueprint *struct {
			Metadata `yaml:",inline"`
			Input    *Inputs `yaml:"input"`
		} `yaml:"blueprint"`
	}
	if err := doc.Content[0].Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode blueprint: %w", err)
	}

	def := &Definition{Blueprint: raw.Metadata}
	if raw.Input != nil {
		def.Input = *raw.Input
	}
	if raw.Blueprint != nil {
		def.Blueprint = raw.Blueprint.Metadata
		if raw.Blueprint.Input != nil {
			def.Input = *raw.Blueprint.Input
		}
	}
	return def, nil
}

func isDir(parent string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}

func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

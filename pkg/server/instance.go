package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adconfigurator/api/pkg/logging"
)

// GetOrCreateInstanceID reads the configurator instance ID from path, writing
// a fresh one when the file does not exist yet. An empty path yields an ID
// that only lives as long as the process.
func GetOrCreateInstanceID(path string) (string, error) {
	if path == "" {
		return uuid.NewString(), nil
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(data)); id != "" {
			logging.Logger.Info("Loaded existing instance ID", zap.String("id", id))
			return id, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("failed to read instance ID: %w", err)
	}

	id := uuid.NewString()
	logging.Logger.Info("Generated new instance ID", zap.String("id", id))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create instance ID directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to save instance ID: %w", err)
	}

	logging.Logger.Info("Saved instance ID", zap.String("path", path))
	return id, nil
}

// Package upload unpacks blueprint archives into an apps folder.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/adconfigurator/api/pkg/blueprint"
	"github.com/adconfigurator/api/pkg/logging"
)

var (
	ErrEmptyArchive   = errors.New("empty zip file")
	ErrInvalidArchive = errors.New("invalid zip file")
	ErrUnsafePath     = errors.New("archive entry escapes the target folder")
	ErrTooLarge       = errors.New("archive expands beyond the allowed size")
)

// Result describes what an archive put on disk
type Result struct {
	Files      []string `json:"files"`
	Blueprints []string `json:"blueprints"`
}

// Extract writes every entry of the zip archive in data below dest,
// overwriting existing files. maxBytes caps the total uncompressed size;
// zero means no cap. Nothing is written when an entry would land outside
// dest.
func Extract(data []byte, dest string, maxBytes int64) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrEmptyArchive
	}

	// NewReader may return a usable reader alongside an insecure path
	// error; entry names are checked below either way.
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if reader == nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if len(reader.File) == 0 {
		return nil, ErrEmptyArchive
	}

	var total uint64
	for _, file := range reader.File {
		if _, err := targetPath(dest, file.Name); err != nil {
			return nil, err
		}
		total += file.UncompressedSize64
	}
	if maxBytes > 0 && total > uint64(maxBytes) {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, total)
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, fmt.Errorf("failed to create target folder: %w", err)
	}

	result := &Result{Files: []string{}, Blueprints: []string{}}
	for _, file := range reader.File {
		target, _ := targetPath(dest, file.Name)
		mode := file.Mode()

		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0755); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", file.Name, err)
			}
			continue
		case !mode.IsRegular():
			logging.Logger.Debug("Skipping non-regular archive entry",
				zap.String("entry", file.Name))
			continue
		}

		if err := writeFile(file, target); err != nil {
			return nil, err
		}

		name := path.Clean(strings.ReplaceAll(file.Name, `\`, "/"))
		result.Files = append(result.Files, name)
		if path.Base(name) == blueprint.FileName && path.Dir(name) != "." {
			result.Blueprints = append(result.Blueprints, path.Base(path.Dir(name)))
		}
	}
	sort.Strings(result.Blueprints)

	logging.Logger.Info("Extracted blueprint archive",
		zap.String("target", dest),
		zap.Int("files", len(result.Files)),
		zap.Strings("blueprints", result.Blueprints))
	return result, nil
}

// targetPath maps an entry name onto dest, refusing absolute names and
// names that climb out of dest
func targetPath(dest, name string) (string, error) {
	cleaned := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if cleaned == "." || path.IsAbs(cleaned) || filepath.IsAbs(name) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return filepath.Join(dest, filepath.FromSlash(cleaned)), nil
}

func writeFile(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create folder for %s: %w", file.Name, err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", file.Name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to write %s: %w", file.Name, err)
	}
	return dst.Close()
}

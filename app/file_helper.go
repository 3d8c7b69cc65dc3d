package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/sdlcguard/domain"
)

// FileHelper provides file operation utilities for report exports
type FileHelper struct{}

// NewFileHelper creates a new FileHelper
func NewFileHelper() *FileHelper {
	return &FileHelper{}
}

// FileExists checks if a regular file exists
func (h *FileHelper) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// WriteOutput writes content to path, creating parent directories. The
// file is replaced atomically so a failed write never leaves a partial
// export behind.
func (h *FileHelper) WriteOutput(path string, content []byte) error {
	if path == "" {
		return domain.NewInvalidInputError("output path is empty", nil)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return domain.NewOutputError(fmt.Sprintf("output path %s is a directory", path), nil)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.NewOutputError("failed to create output directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return domain.NewOutputError("failed to create temporary export file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return domain.NewOutputError("failed to write export", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.NewOutputError("failed to write export", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return domain.NewOutputError("failed to set export permissions", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return domain.NewOutputError("failed to move export into place", err)
	}
	return nil
}

// DefaultExportPath names the export file for format inside dir
func DefaultExportPath(dir string, format domain.OutputFormat) string {
	ext := "json"
	if format == domain.OutputFormatMarkdown {
		ext = "md"
	}
	return filepath.Join(dir, "sdlc-validation-report."+ext)
}

package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/constants"
)

// FileConfigStore keeps the level override in .sdlc/level.json
type FileConfigStore struct {
	root string
}

// NewFileConfigStore creates a store rooted at a repository path
func NewFileConfigStore(root string) *FileConfigStore {
	return &FileConfigStore{root: root}
}

// Location returns the path of the override file
func (s *FileConfigStore) Location() string {
	return filepath.Join(s.root, filepath.FromSlash(constants.LevelFile))
}

// ReadLevel implements domain.ConfigStore
func (s *FileConfigStore) ReadLevel() (domain.Level, bool, error) {
	data, err := os.ReadFile(s.Location())
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, domain.NewConfigError("failed to read level override", err)
	}

	var payload struct {
		Level string `json:"level"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", false, domain.NewConfigError("malformed level override", err)
	}
	level, err := domain.ParseLevel(payload.Level)
	if err != nil {
		return "", false, domain.NewConfigError("invalid level override", err)
	}
	return level, true, nil
}

// WriteLevel implements domain.ConfigStore. Other keys already present in
// the file are preserved.
func (s *FileConfigStore) WriteLevel(level domain.Level) error {
	if !level.Valid() {
		return domain.NewInvalidInputError(fmt.Sprintf("unknown level %q", level), nil)
	}

	payload := map[string]interface{}{}
	if data, err := os.ReadFile(s.Location()); err == nil {
		// A corrupt file is replaced rather than merged
		_ = json.Unmarshal(data, &payload)
	}
	payload["level"] = string(level)

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return domain.NewConfigError("failed to encode level override", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Location()), 0o755); err != nil {
		return domain.NewConfigError("failed to create "+constants.SDLCDir, err)
	}
	if err := os.WriteFile(s.Location(), append(data, '\n'), 0o644); err != nil {
		return domain.NewConfigError("failed to write level override", err)
	}
	return nil
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"FeedSignals/internal/identity"
	"FeedSignals/internal/ports"
)

// FileStore keeps the identity log as a JSON array in a single file.
type FileStore struct {
	path   string
	logger *slog.Logger
}

var _ ports.IdentityStore = (*FileStore)(nil)

// NewFileStore points the store at path; the file is created on first save.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// Load reads the whole log. A missing or corrupt file is treated as no history.
func (s *FileStore) Load(_ context.Context) *identity.Log {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("identity log unreadable, starting empty", "path", s.path, "error", err)
		}
		return identity.NewLog()
	}

	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		s.logger.Warn("identity log corrupt, starting empty", "path", s.path, "error", err)
		return identity.NewLog()
	}

	log := identity.FromStrings(values)
	s.logger.Debug("identity log loaded", "path", s.path, "count", log.Len())
	return log
}

// Save rewrites the file through a temp file and rename so readers never
// observe a partially written log.
func (s *FileStore) Save(_ context.Context, log *identity.Log) error {
	data, err := json.MarshalIndent(log.Strings(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal identity log: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create identity log directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".identity-*.json")
	if err != nil {
		return fmt.Errorf("create temp identity log: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write identity log: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("sync identity log: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp identity log: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace identity log: %w", err)
	}
	success = true
	return nil
}

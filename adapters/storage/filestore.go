// Package storage implements the persistence gateway over the local
// filesystem: one JSON bundle file per session.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fieldscope/server/domain/entities"
	"github.com/fieldscope/server/domain/repositories"
)

// FileStore persists transcript bundles as JSON files under a root
// directory.
type FileStore struct {
	root   string
	logger *zap.Logger
}

var _ repositories.PersistenceGateway = (*FileStore)(nil)

// NewFileStore creates a file-backed gateway rooted at dir.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{root: dir, logger: logger}, nil
}

func (s *FileStore) bundlePath(sessionID string) string {
	return filepath.Join(s.root, sessionID+".json")
}

// Write persists the bundle and returns the file path. The write goes
// through a temp file and rename so a crash never leaves a truncated
// bundle behind.
func (s *FileStore) Write(_ context.Context, sessionID string, bundle entities.TranscriptBundle) (string, error) {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode bundle: %w", err)
	}

	path := s.bundlePath(sessionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write bundle: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to finalize bundle: %w", err)
	}

	s.logger.Info("bundle written",
		zap.String("session_id", sessionID),
		zap.String("path", path),
		zap.Int("bytes", len(data)))
	return path, nil
}

// Read loads a previously persisted bundle.
func (s *FileStore) Read(_ context.Context, sessionID string) (*entities.TranscriptBundle, error) {
	data, err := os.ReadFile(s.bundlePath(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}
	var bundle entities.TranscriptBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}
	return &bundle, nil
}

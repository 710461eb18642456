package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"horizonscan/internal/ports"
)

// FilesystemSink writes scan artifacts beneath a root directory.
type FilesystemSink struct {
	root string
}

var _ ports.ArtifactSink = (*FilesystemSink)(nil)

// NewFilesystemSink creates the root directory up front so individual
// writes stay cheap.
func NewFilesystemSink(root string) (*FilesystemSink, error) {
	if root == "" {
		return nil, fmt.Errorf("artifact root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FilesystemSink{root: root}, nil
}

// Write stores one artifact. Names are flattened to their base so a
// crafted name cannot escape the root.
func (s *FilesystemSink) Write(name string, data []byte) error {
	path := filepath.Join(s.root, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", name, err)
	}
	return nil
}

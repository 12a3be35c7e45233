// Package fs implements a local filesystem archive for raw page bodies.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config captures the parameters for the filesystem archive.
type Config struct {
	// BaseDir is the root directory under which raw pages are stored.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// Archive writes raw page bodies to the local filesystem.
type Archive struct {
	baseDir string
}

// New validates the base directory, creating it when absent, and returns an
// Archive rooted there.
func New(cfg Config) (*Archive, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("archive base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
				return nil, fmt.Errorf("create archive directory: %w", mkErr)
			}
		} else {
			return nil, fmt.Errorf("stat archive directory: %w", err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("archive path is not a directory")
	}

	return &Archive{baseDir: cfg.BaseDir}, nil
}

// Put writes data to path under the base directory and returns a file:// URI.
// The path must stay within the base directory.
func (a *Archive) Put(_ context.Context, path string, data []byte) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("archive path is required")
	}

	fullPath := filepath.Join(a.baseDir, path)
	cleanBase := filepath.Clean(a.baseDir)
	cleanFull := filepath.Clean(fullPath)
	if !strings.HasPrefix(cleanFull, cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("archive path escapes base directory")
	}

	if err := os.MkdirAll(filepath.Dir(cleanFull), 0o750); err != nil {
		return "", fmt.Errorf("create archive subdirectory: %w", err)
	}
	if err := os.WriteFile(cleanFull, data, 0o600); err != nil {
		return "", fmt.Errorf("write archive file: %w", err)
	}
	return fmt.Sprintf("file://%s", cleanFull), nil
}

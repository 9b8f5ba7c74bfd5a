// Package local implements a local filesystem storage provider.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Config captures the parameters for the local filesystem provider.
type Config struct {
	// BaseDir is the root directory input and output paths resolve under.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// Provider reads and writes analysis artifacts on the local filesystem.
type Provider struct {
	baseDir string
}

// New creates a filesystem-backed provider rooted at cfg.BaseDir, creating
// the directory when missing and failing fast when it is not writable.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("clean up writability probe: %w", err)
	}

	return &Provider{baseDir: cfg.BaseDir}, nil
}

// Open returns a reader over the file at path, resolved under the base
// directory.
func (p *Provider) Open(_ context.Context, path string) (io.ReadCloser, error) {
	full, err := p.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// Save writes data to a file under the base directory, creating parent
// directories as needed.
func (p *Provider) Save(_ context.Context, path string, data []byte) error {
	full, err := p.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// resolve joins path onto the base directory and rejects traversal outside
// of it.
func (p *Provider) resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	full := filepath.Clean(filepath.Join(p.baseDir, path))
	base := filepath.Clean(p.baseDir)
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes base directory", path)
	}
	return full, nil
}

// Package prompt loads review prompt templates from disk and keeps them in
// memory for the lifetime of the process.
package prompt

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/arandaschimpf/claude-review/internal/core"
)

// ReadFileFunc reads a whole file.
type ReadFileFunc func(name string) ([]byte, error)

// Loader serves prompt templates keyed by their resolved path. Once a path is
// loaded its content never changes, even if the file does.
type Loader struct {
	readFile ReadFileFunc
	cache    sync.Map // resolved path -> string
	logger   *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithReadFile replaces the function used to read template files.
func WithReadFile(fn ReadFileFunc) Option {
	return func(l *Loader) {
		l.readFile = fn
	}
}

// NewLoader creates an empty Loader.
func NewLoader(logger *slog.Logger, opts ...Option) *Loader {
	l := &Loader{
		readFile: os.ReadFile,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the trimmed content of the template at path. Failures are not
// cached, so a later call retries the read.
func (l *Loader) Load(path string) (string, error) {
	key, err := resolve(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to resolve prompt path %s: %w", core.ErrConfiguration, path, err)
	}

	if v, ok := l.cache.Load(key); ok {
		return v.(string), nil
	}

	data, err := l.readFile(key)
	if err != nil {
		l.logger.Error("failed to read prompt file", "path", key, "error", err)
		return "", fmt.Errorf("%w: failed to read prompt file %s: %w", core.ErrConfiguration, key, err)
	}

	// Concurrent first loads race benignly; the first stored value wins.
	v, loaded := l.cache.LoadOrStore(key, strings.TrimSpace(string(data)))
	content := v.(string)
	if !loaded {
		l.logger.Info("prompt cached", "path", key, "bytes", len(content))
	}
	return content, nil
}

func resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	return filepath.Abs(path)
}

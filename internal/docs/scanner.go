package docs

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"cib/internal/config"
	"cib/internal/logging"
)

// Scanner discovers candidate source files under the workspace for the
// resolver's fallback scan. Scope "workspace" skips vendored and
// generated directories; scope "all" walks everything. Both behaviors
// exist in the project history, so the choice lives in configuration.
type Scanner struct {
	root       string
	scope      config.ScanScope
	ignoreDirs map[string]bool
	extensions map[string]bool
	maxFiles   int
	logger     *logging.Logger
}

// NewScanner creates a scanner from resolver configuration
func NewScanner(root string, cfg config.ResolverConfig, logger *logging.Logger) *Scanner {
	ignore := make(map[string]bool, len(cfg.IgnoreDirs))
	for _, d := range cfg.IgnoreDirs {
		ignore[d] = true
	}

	exts := make(map[string]bool, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts[strings.ToLower(e)] = true
	}

	return &Scanner{
		root:       root,
		scope:      config.ScanScope(cfg.ScanScope),
		ignoreDirs: ignore,
		extensions: exts,
		maxFiles:   cfg.MaxFilesScanned,
		logger:     logger,
	}
}

// Scan walks the workspace and returns candidate file paths, capped at
// the configured maximum. The walk stops early once the cap is reached;
// latency matters more than completeness for a best-effort fallback.
func (s *Scanner) Scan(ctx context.Context) ([]string, error) {
	var files []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if d.IsDir() {
			// The root itself is never excluded; a workspace may well
			// live in a dot-named directory.
			if path != s.root && s.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		files = append(files, path)
		if s.maxFiles > 0 && len(files) >= s.maxFiles {
			return filepath.SkipAll
		}
		return nil
	})

	if err != nil && err != filepath.SkipAll {
		return nil, err
	}

	s.logger.Debug("Workspace scan complete", map[string]interface{}{
		"root":  s.root,
		"scope": string(s.scope),
		"files": len(files),
	})

	return files, nil
}

// skipDir reports whether a directory is excluded from the walk
func (s *Scanner) skipDir(name string) bool {
	if strings.HasPrefix(name, ".") && name != "." {
		return true
	}
	if s.scope == config.ScanAll {
		return false
	}
	return s.ignoreDirs[name]
}

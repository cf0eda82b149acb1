package main

import (
	"os"
	"path/filepath"

	"cib/internal/bridge"
	"cib/internal/config"
	"cib/internal/engine"
	"cib/internal/engine/lsp"
	"cib/internal/engine/scip"
	"cib/internal/logging"
	"cib/internal/version"

	"github.com/spf13/cobra"
)

var (
	workspaceFlag string
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "cib",
	Short: "cib - Code Intelligence Bridge",
	Long: `cib (Code Intelligence Bridge) exposes a workspace's code
intelligence (symbol resolution, reference finding) to external tooling
over local HTTP or a workspace-derived socket endpoint.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("cib version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&workspaceFlag, "workspace", "",
		"Workspace root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "",
		"Log format: human, json")
}

// resolveWorkspace returns the absolute workspace root from the flag or
// the current directory
func resolveWorkspace() (string, error) {
	root := workspaceFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}
	return filepath.Abs(root)
}

// newLogger builds the logger from config with flag overrides
func newLogger(cfg *config.Config) *logging.Logger {
	level := cfg.Logging.Level
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	format := cfg.Logging.Format
	if logFormatFlag != "" {
		format = logFormatFlag
	}

	return logging.NewLogger(logging.Config{
		Level:  logging.ParseLevel(level),
		Format: logging.ParseFormat(format),
	})
}

// loadConfig loads the workspace config and its server manifest
func loadConfig(workspaceRoot string) (*config.Config, error) {
	cfg, err := config.LoadConfig(workspaceRoot)
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadServerManifest(workspaceRoot); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildEngine assembles the engine ladder in the configured preference
// order. An engine that cannot come up is logged and skipped; the
// ladder handles a fully empty rung list at query time.
func buildEngine(workspaceRoot string, cfg *config.Config, logger *logging.Logger) engine.Engine {
	var rungs []engine.Engine

	for _, name := range cfg.Engine.PreferenceOrder {
		switch name {
		case "scip":
			if !cfg.Engine.Scip.Enabled {
				continue
			}
			indexPath := cfg.Engine.Scip.IndexPath
			if !filepath.IsAbs(indexPath) {
				indexPath = filepath.Join(workspaceRoot, indexPath)
			}
			eng, err := scip.New(workspaceRoot, indexPath, logger)
			if err != nil {
				logger.Warn("SCIP engine unavailable", map[string]interface{}{
					"indexPath": indexPath,
					"error":     err.Error(),
				})
				continue
			}
			rungs = append(rungs, eng)
		case "lsp":
			if !cfg.Engine.Lsp.Enabled {
				continue
			}
			rungs = append(rungs, lsp.New(workspaceRoot, cfg.Engine.Lsp, logger))
		default:
			logger.Warn("Unknown engine in preference order", map[string]interface{}{
				"engine": name,
			})
		}
	}

	return engine.NewLadder(logger, rungs...)
}

// buildService composes the bridge service for a workspace
func buildService(workspaceRoot string, cfg *config.Config, logger *logging.Logger) *bridge.Service {
	eng := buildEngine(workspaceRoot, cfg, logger)
	return bridge.NewService(workspaceRoot, cfg.Resolver, eng, logger)
}

// Package config loads and persists the cib configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete cib configuration
type Config struct {
	Version   int    `json:"version" mapstructure:"version"`
	Workspace string `json:"workspace" mapstructure:"workspace"`

	HTTP     HTTPConfig     `json:"http" mapstructure:"http"`
	Engine   EngineConfig   `json:"engine" mapstructure:"engine"`
	Resolver ResolverConfig `json:"resolver" mapstructure:"resolver"`
	Client   ClientConfig   `json:"client" mapstructure:"client"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// HTTPConfig contains the HTTP transport configuration
type HTTPConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// EngineConfig contains intelligence engine configuration
type EngineConfig struct {
	// PreferenceOrder is the prefer-first ladder over engine backends
	PreferenceOrder []string   `json:"preferenceOrder" mapstructure:"preferenceOrder"`
	Lsp             LspConfig  `json:"lsp" mapstructure:"lsp"`
	Scip            ScipConfig `json:"scip" mapstructure:"scip"`
}

// LspConfig contains LSP engine configuration
type LspConfig struct {
	Enabled bool                    `json:"enabled" mapstructure:"enabled"`
	Servers map[string]LspServerCfg `json:"servers" mapstructure:"servers"`
}

// LspServerCfg contains configuration for a single language server
type LspServerCfg struct {
	Command string   `json:"command" mapstructure:"command" yaml:"command"`
	Args    []string `json:"args" mapstructure:"args" yaml:"args"`
}

// ScipConfig contains SCIP engine configuration
type ScipConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	IndexPath string `json:"indexPath" mapstructure:"indexPath"`
}

// ScanScope controls which files the resolver fallback may open
type ScanScope string

const (
	// ScanWorkspace restricts the fallback scan to non-vendored workspace files
	ScanWorkspace ScanScope = "workspace"
	// ScanAll includes vendored and dependency directories in the fallback scan
	ScanAll ScanScope = "all"
)

// ResolverConfig contains symbol resolver configuration
type ResolverConfig struct {
	// ScanScope is "workspace" or "all". Both behaviors exist in the
	// project history; the choice is configuration, not code.
	ScanScope       string   `json:"scanScope" mapstructure:"scanScope"`
	MaxFilesScanned int      `json:"maxFilesScanned" mapstructure:"maxFilesScanned"`
	IgnoreDirs      []string `json:"ignoreDirs" mapstructure:"ignoreDirs"`
	Extensions      []string `json:"extensions" mapstructure:"extensions"`
}

// ClientConfig contains pipe client configuration
type ClientConfig struct {
	TimeoutMs int `json:"timeoutMs" mapstructure:"timeoutMs"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:   1,
		Workspace: ".",
		HTTP: HTTPConfig{
			Host: "localhost",
			Port: 3000,
		},
		Engine: EngineConfig{
			PreferenceOrder: []string{"scip", "lsp"},
			Lsp: LspConfig{
				Enabled: true,
				Servers: map[string]LspServerCfg{
					"typescript": {
						Command: "typescript-language-server",
						Args:    []string{"--stdio"},
					},
					"go": {
						Command: "gopls",
						Args:    []string{"serve"},
					},
				},
			},
			Scip: ScipConfig{
				Enabled:   false,
				IndexPath: "index.scip",
			},
		},
		Resolver: ResolverConfig{
			ScanScope:       string(ScanWorkspace),
			MaxFilesScanned: 2000,
			IgnoreDirs:      []string{"node_modules", "vendor", "build", "dist", ".git", ".dart_tool"},
			Extensions:      []string{".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".dart", ".rs", ".java"},
		},
		Client: ClientConfig{
			TimeoutMs: 10000,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from <workspace>/.cib/config.json
func LoadConfig(workspaceRoot string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(workspaceRoot, ".cib"))

	if err := v.ReadInConfig(); err != nil {
		// Missing config is not an error; everything has a default.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := DefaultConfig()
			cfg.Workspace = workspaceRoot
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if cfg.Workspace == "" || cfg.Workspace == "." {
		cfg.Workspace = workspaceRoot
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to <workspace>/.cib/config.json
func (c *Config) Save(workspaceRoot string) error {
	dir := filepath.Join(workspaceRoot, ".cib")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return &ConfigError{Field: "http.port", Message: fmt.Sprintf("port %d out of range", c.HTTP.Port)}
	}

	switch ScanScope(c.Resolver.ScanScope) {
	case ScanWorkspace, ScanAll:
	default:
		return &ConfigError{Field: "resolver.scanScope", Message: "must be 'workspace' or 'all'"}
	}

	if c.Client.TimeoutMs <= 0 {
		return &ConfigError{Field: "client.timeoutMs", Message: "must be positive"}
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

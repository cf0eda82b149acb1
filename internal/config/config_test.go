package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HTTP.Port != 3000 {
		t.Errorf("Expected default port 3000, got %d", cfg.HTTP.Port)
	}
	if cfg.Resolver.ScanScope != string(ScanWorkspace) {
		t.Errorf("Expected default scan scope 'workspace', got %q", cfg.Resolver.ScanScope)
	}
	if cfg.Client.TimeoutMs != 10000 {
		t.Errorf("Expected default client timeout 10000ms, got %d", cfg.Client.TimeoutMs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("Expected defaults for missing config, got error %v", err)
	}
	if cfg.Workspace != dir {
		t.Errorf("Expected workspace %q, got %q", dir, cfg.Workspace)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.HTTP.Port = 4100
	cfg.Resolver.ScanScope = string(ScanAll)

	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.HTTP.Port != 4100 {
		t.Errorf("Expected port 4100, got %d", loaded.HTTP.Port)
	}
	if loaded.Resolver.ScanScope != string(ScanAll) {
		t.Errorf("Expected scan scope 'all', got %q", loaded.Resolver.ScanScope)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"port too low", func(c *Config) { c.HTTP.Port = 0 }, true},
		{"port too high", func(c *Config) { c.HTTP.Port = 70000 }, true},
		{"bad scan scope", func(c *Config) { c.Resolver.ScanScope = "everything" }, true},
		{"scan all", func(c *Config) { c.Resolver.ScanScope = "all" }, false},
		{"zero timeout", func(c *Config) { c.Client.TimeoutMs = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadServerManifest(t *testing.T) {
	dir := t.TempDir()
	cibDir := filepath.Join(dir, ".cib")
	if err := os.MkdirAll(cibDir, 0755); err != nil {
		t.Fatal(err)
	}

	manifest := `servers:
  python:
    command: pyright-langserver
    args: ["--stdio"]
  go:
    command: custom-gopls
`
	if err := os.WriteFile(filepath.Join(cibDir, "servers.yaml"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadServerManifest(dir); err != nil {
		t.Fatalf("Failed to load manifest: %v", err)
	}

	py, ok := cfg.Engine.Lsp.Servers["python"]
	if !ok {
		t.Fatal("Expected python server from manifest")
	}
	if py.Command != "pyright-langserver" {
		t.Errorf("Expected pyright-langserver, got %q", py.Command)
	}

	// Manifest entries override config.json entries per language.
	if cfg.Engine.Lsp.Servers["go"].Command != "custom-gopls" {
		t.Errorf("Expected manifest to override go server, got %q", cfg.Engine.Lsp.Servers["go"].Command)
	}
	// Untouched languages keep their config.json definition.
	if _, ok := cfg.Engine.Lsp.Servers["typescript"]; !ok {
		t.Error("Expected typescript server to survive the merge")
	}
}

func TestLoadServerManifestMissing(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.LoadServerManifest(t.TempDir()); err != nil {
		t.Errorf("Missing manifest should not error, got %v", err)
	}
}

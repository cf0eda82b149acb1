package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// serverManifest is the on-disk shape of <workspace>/.cib/servers.yaml
type serverManifest struct {
	Servers map[string]LspServerCfg `yaml:"servers"`
}

// LoadServerManifest merges language server definitions from
// <workspace>/.cib/servers.yaml into the config. The manifest lets a
// workspace pin its own servers without touching config.json; entries
// override config.json on a per-language basis. A missing manifest is
// not an error.
func (c *Config) LoadServerManifest(workspaceRoot string) error {
	path := filepath.Join(workspaceRoot, ".cib", "servers.yaml")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var manifest serverManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return err
	}

	if c.Engine.Lsp.Servers == nil {
		c.Engine.Lsp.Servers = make(map[string]LspServerCfg)
	}
	for lang, server := range manifest.Servers {
		c.Engine.Lsp.Servers[lang] = server
	}

	return nil
}

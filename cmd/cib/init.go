package main

import (
	"fmt"
	"os"
	"path/filepath"

	"cib/internal/config"

	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration into the workspace",
	Long: `Write the default configuration to <workspace>/.cib/config.json
so it can be edited. Every option has a default; running the bridge
without a config file works too.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}

	path := filepath.Join(workspaceRoot, ".cib", "config.json")
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	cfg.Workspace = workspaceRoot
	if err := cfg.Save(workspaceRoot); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

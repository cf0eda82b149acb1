package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"cib/internal/daemon"
	"cib/internal/endpoint"

	"github.com/spf13/cobra"
)

var refsFormat string

var refsCmd = &cobra.Command{
	Use:   "refs <symbolName>",
	Short: "Find all references to a symbol via a running bridge",
	Long: `Find all references to a symbol by name. The command connects
to the bridge daemon on the workspace-derived endpoint.

Examples:
  cib refs greetUser
  cib refs greetUser --format=human`,
	Args: cobra.ExactArgs(1),
	RunE: runRefs,
}

func init() {
	refsCmd.Flags().StringVar(&refsFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(refsCmd)
}

func runRefs(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(workspaceRoot)
	if err != nil {
		return err
	}

	address, err := endpoint.Derive(workspaceRoot)
	if err != nil {
		return err
	}

	client, err := daemon.Dial(address, time.Duration(cfg.Client.TimeoutMs)*time.Millisecond)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot reach the bridge at %s; is 'cib daemon' running?\n", address)
		return err
	}
	defer client.Close()

	result, err := client.Call("findReferences", map[string]string{"symbolName": args[0]})
	if err != nil {
		return err
	}

	if refsFormat == "human" {
		printRefsHuman(result)
		return nil
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func printRefsHuman(result interface{}) {
	body, ok := result.(map[string]interface{})
	if !ok {
		fmt.Println(result)
		return
	}

	if symbol, ok := body["symbol"].(map[string]interface{}); ok {
		fmt.Printf("Symbol: %v (%v)\n", symbol["name"], symbol["uri"])
	}
	fmt.Printf("References: %v\n", body["totalReferences"])

	refs, _ := body["references"].([]interface{})
	for _, item := range refs {
		ref, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		rng, _ := ref["range"].(map[string]interface{})
		start, _ := rng["start"].(map[string]interface{})
		fmt.Printf("  %v:%v:%v\n", ref["uri"], start["line"], start["character"])
	}
}

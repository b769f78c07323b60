package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	dataDir string
	worldID string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:          "admin",
		Short:        "Moderation tools for the villager action log",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.dataDir, "data", "./data", "runtime data directory")
	root.PersistentFlags().StringVar(&g.worldID, "world", "overworld", "world id")
	root.AddCommand(actionsCmd(g))
	root.AddCommand(stateCmd())
	return root
}

func (g *globalFlags) worldDir() string {
	return filepath.Join(g.dataDir, "worlds", g.worldID)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

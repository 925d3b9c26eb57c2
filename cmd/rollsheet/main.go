package main

import (
	"os"

	"github.com/spf13/cobra"

	"rollsheet/internal/config"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rollsheet",
		Short: "Tabletop character sheet and dice companion",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Project config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log database bootstrap steps to stderr")
	root.AddCommand(serveCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(rollCmd())
	root.AddCommand(rollsCmd())
	root.AddCommand(sheetCmd())
	root.AddCommand(logCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(initCmd())
	root.AddCommand(versionCmd())
	return root
}

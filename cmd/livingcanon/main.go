package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "livingcanon",
		Short:         "Narrative engine driven by authenticated primary sources",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "livingcanon.yaml", "Path to the project config")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(initCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(createCmd())
	root.AddCommand(npcCmd())
	root.AddCommand(mixCmd())
	root.AddCommand(stateCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(sourcesCmd())
	root.AddCommand(sqlCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

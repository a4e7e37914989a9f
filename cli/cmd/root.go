package cmd

import (
	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "flowctl",
	Short: "FlowSight Push CLI",
	Long: `flowctl is the command-line interface for the FlowSight push service.

Push meter payloads, read back stored records, and manage the device
registry from your terminal.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8000", "push service base URL")
}

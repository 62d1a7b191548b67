package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	manifestPath string
	bakeriesPath string
	verbose      bool
	jsonOutput   bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bakeryctl",
		Short: "OpenBakery - Recipe Registration Engine",
		Long: `OpenBakery resolves data-pipeline recipe manifests against bakery
(compute provider) descriptors and registers the resulting flows with a
workflow engine.

Features:
  - Typed manifests via CUE schemas
  - Derived output, input-cache and metadata-cache targets
  - Fargate and Kubernetes worker-pool executors
  - Optional immediate runs with automation hooks
  - Local SQLite registration ledger`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", "meta.yaml", "recipe manifest path")
	rootCmd.PersistentFlags().StringVarP(&bakeriesPath, "bakeries", "b", "bakeries.yaml", "bakery table path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newRegisterCommand(version))
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newLedgerCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, buildDate))

	return rootCmd
}

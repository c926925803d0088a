// Package commands implements the bankfeed CLI: a headless way to browse
// templates, upload statement files, and probe job status.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jmorgal/bankfeed/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bankfeed",
		Short: "Upload bank statements for server-side parsing",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newTemplatesCommand())
	rootCmd.AddCommand(newUploadCommand())
	rootCmd.AddCommand(newStatusCommand())

	return rootCmd
}

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	return config.Load()
}

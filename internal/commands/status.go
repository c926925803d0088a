package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmorgal/bankfeed/internal/ingest/client"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status JOB_ID",
		Short: "Probe the parse status of a submitted job once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			api := client.New(cfg.API.BaseURL, client.Options{})

			status, err := api.CheckStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			switch status.Status {
			case "parsed":
				fmt.Fprintf(cmd.OutOrStdout(), "parsed: %d transaction(s)\n", status.TransactionCount)
			case "failed":
				fmt.Fprintf(cmd.OutOrStdout(), "failed: %s\n", status.Error)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "pending (%s)\n", status.Status)
			}

			return nil
		},
	}
}

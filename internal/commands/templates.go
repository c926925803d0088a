package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmorgal/bankfeed/internal/catalog"
)

func newTemplatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the upload templates the ingestion service offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			cat, err := catalog.NewClient(cfg.API.BaseURL).Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching templates: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INSTITUTION\tRECORD TYPE\tFORMAT\tLABEL")

			for _, inst := range cat.Institutions() {
				for _, tmpl := range inst.Templates {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						inst.Code, tmpl.RecordType, tmpl.Format, tmpl.Label)
				}
			}

			return w.Flush()
		},
	}
}

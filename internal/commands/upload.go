package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmorgal/bankfeed/internal/catalog"
	"github.com/jmorgal/bankfeed/internal/ingest"
	"github.com/jmorgal/bankfeed/internal/ingest/client"
	"github.com/jmorgal/bankfeed/internal/intake"
	"github.com/jmorgal/bankfeed/internal/selection"
)

func newUploadCommand() *cobra.Command {
	var institution, recordType, format string

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload statement files and wait for their parse results",
		Long: `Upload one or more statement files against a template and poll each
resulting job until it finishes. Files are processed strictly one at a
time; a failed file never affects the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, institution, recordType, format, args)
		},
	}

	cmd.Flags().StringVar(&institution, "institution", "", "institution code (see 'bankfeed templates')")
	cmd.Flags().StringVar(&recordType, "type", "", "record type, e.g. savings")
	cmd.Flags().StringVar(&format, "format", "", "file format; optional when the pair offers only one")
	_ = cmd.MarkFlagRequired("institution")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func runUpload(cmd *cobra.Command, institution, recordType, format string, paths []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	cat, err := catalog.NewClient(cfg.API.BaseURL).Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetching templates: %w", err)
	}

	sel := selection.New(cat)
	sel.SelectInstitution(institution)
	sel.SelectRecordType(catalog.RecordType(recordType))

	if format != "" {
		sel.SelectFormat(catalog.FileFormat(format))
	}

	tmpl := sel.ActiveTemplate()
	if tmpl == nil {
		return fmt.Errorf("no template matches %s/%s/%s; run 'bankfeed templates' to see what is offered",
			institution, recordType, format)
	}

	payloads := make([]intake.Payload, 0, len(paths))

	for _, path := range paths {
		p, err := intake.FromPath(path)
		if err != nil {
			return err
		}

		payloads = append(payloads, p)
	}

	queue := intake.NewQueue()

	rejected, err := queue.Add(tmpl, payloads...)
	if err != nil {
		return err
	}

	for _, name := range rejected {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: extension does not match %s\n", name, tmpl.Format)
	}

	if queue.Len() == 0 {
		return fmt.Errorf("no files left to upload")
	}

	api := client.New(cfg.API.BaseURL, client.Options{
		PollInterval: cfg.API.PollInterval,
		PollAttempts: cfg.API.PollAttempts,
	})

	svc := ingest.NewService(queue, api, api)
	svc.UploadAll(ctx)

	failed := 0

	for _, f := range queue.Files() {
		switch f.Status {
		case intake.StatusSuccess:
			fmt.Fprintf(cmd.OutOrStdout(), "%s: parsed %d transactions (job %s)\n",
				f.Payload.Name(), f.TransactionCount, f.JobID)
		default:
			failed++

			fmt.Fprintf(cmd.OutOrStdout(), "%s: failed: %s\n", f.Payload.Name(), f.ErrorMessage)
		}
	}

	summary := svc.Summary()
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d file(s) parsed, %d transaction(s) total\n",
		summary.Succeeded, summary.Transactions)

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, queue.Len())
	}

	return nil
}

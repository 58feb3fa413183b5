package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/JonMunkholm/BeneficiaryImport/internal/config"
	"github.com/JonMunkholm/BeneficiaryImport/internal/core"
	"github.com/JonMunkholm/BeneficiaryImport/internal/crm"
	"github.com/spf13/cobra"
)

type importOptions struct {
	dryRun       bool
	stripInvalid bool
	asJSON       bool
	quiet        bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Reconcile every row of a spreadsheet with the CRM",
		Long: `Import a beneficiary spreadsheet: validate it, then for each row find or
create the contact and account, and create the equipment profile and deal.

The CRM is chosen by CRM_BACKEND (memory, http or postgres). With --dry-run
the rows run against an in-memory store and nothing is written.

Rows with validation errors block the import unless --strip-invalid is set.

Example: beneficiaries import june.xlsx --strip-invalid`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.dryRun {
				cfg.CRM.Backend = config.BackendMemory
			}

			backend, err := crm.Open(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}
			defer backend.Close()

			service := core.NewService(backend.Store, core.ServiceConfig{
				MaxConcurrent: 1,
				MaxWait:       cfg.Import.MaxWaitTime,
				SessionTTL:    cfg.Import.SessionTTL,
				Deal:          crm.DealSettings(cfg),
				History:       backend.History,
			})

			m, err := readMatrix(args[0], cfg.Import.MaxFileSize)
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), service, filepath.Base(args[0]), m, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Run against an in-memory store instead of the CRM")
	cmd.Flags().BoolVar(&opts.stripInvalid, "strip-invalid", false, "Drop rows with validation errors and import the rest")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the batch report as JSON")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print per-row progress")

	return cmd
}

// runImport stages m, optionally strips invalid rows, runs the batch and
// prints its report. Progress goes to progressOut so out stays parseable.
func runImport(ctx context.Context, service *core.Service, name string, m core.Matrix, opts importOptions, out, progressOut io.Writer) error {
	summary, err := service.Stage(name, m)
	if err != nil {
		return err
	}

	if len(summary.ValidationErrors) > 0 {
		if !opts.stripInvalid {
			for _, e := range summary.ValidationErrors {
				fmt.Fprintf(progressOut, "  %s\n", e.Error())
			}
			return fmt.Errorf("%w: %d rows (use --strip-invalid to skip them)",
				core.ErrValidationBlocked, len(summary.ValidationErrors))
		}
		if summary, err = service.StripInvalid(summary.ID); err != nil {
			return err
		}
		fmt.Fprintf(progressOut, "skipping %d rows with validation errors\n", summary.RemovedRows)
	}

	updates, err := service.Subscribe(summary.ID)
	if err != nil {
		return err
	}
	if err := service.Start(ctx, summary.ID); err != nil {
		return err
	}

	for p := range updates {
		if !opts.quiet && p.Phase == core.PhaseRunning && p.Processed > 0 {
			fmt.Fprintln(progressOut, p.Status)
		}
	}

	report, err := service.Report(ctx, summary.ID)
	if err != nil {
		return err
	}

	if opts.asJSON {
		if err := printJSON(out, report); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, report.Summary())
		for _, f := range report.Failures {
			fmt.Fprintf(out, "  row %d (%s): %s\n", f.RowNumber, f.Email, f.Message)
		}
	}

	if report.Failed > 0 {
		return errors.New("some rows failed")
	}
	return nil
}

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/BeneficiaryImport/internal/core"
	"github.com/JonMunkholm/BeneficiaryImport/internal/sheet"
	"github.com/spf13/cobra"
)

var errValidationFailed = errors.New("file has validation errors")

// readMatrix decodes and normalizes a spreadsheet from disk.
func readMatrix(path string, maxBytes int64) (core.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := sheet.Decode(f, filepath.Base(path), maxBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", path, core.FormatUserError(err))
	}
	return core.Normalize(m), nil
}

// writeFile writes through a buffer so a failed encode leaves no partial file.
func writeFile(path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func formatFor(path, explicit string) (sheet.Format, error) {
	if explicit != "" {
		f := sheet.Format(strings.ToLower(explicit))
		if f != sheet.FormatCSV && f != sheet.FormatXLSX {
			return "", fmt.Errorf("%w: %s", sheet.ErrUnsupportedType, explicit)
		}
		return f, nil
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return sheet.FormatCSV, nil
	}
	return sheet.FormatXLSX, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type validationResult struct {
	File       string                 `json:"file"`
	Rows       int                    `json:"rows"`
	Resolved   int                    `json:"resolvedColumns"`
	Unresolved []core.Field           `json:"unresolved"`
	Errors     []core.ValidationError `json:"errors"`
}

func newValidateCmd() *cobra.Command {
	var asJSON bool
	var maxBytes int64

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a spreadsheet's columns and emails without importing",
		Long: `Decode a .csv or .xlsx file, resolve its columns and validate every row.

Exits non-zero when any row has a missing or malformed homeowner email, or
when no email column can be found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readMatrix(args[0], maxBytes)
			if err != nil {
				return err
			}

			cm := core.ResolveColumns(m.Header())
			errs := core.Validate(m)
			if errs == nil {
				errs = []core.ValidationError{}
			}
			res := validationResult{
				File:       args[0],
				Rows:       len(m.DataRows()),
				Resolved:   cm.Len(),
				Unresolved: cm.Unresolved(),
				Errors:     errs,
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := printJSON(out, res); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "%s: %d rows, %d columns recognized\n", res.File, res.Rows, res.Resolved)
				if len(res.Unresolved) > 0 {
					fmt.Fprintf(out, "Columns not found: %d\n", len(res.Unresolved))
				}
				for _, e := range errs {
					fmt.Fprintf(out, "  %s\n", e.Error())
				}
			}

			if len(errs) > 0 {
				return fmt.Errorf("%w: %d", errValidationFailed, len(errs))
			}
			if !asJSON {
				fmt.Fprintln(out, "OK")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", sheet.DefaultMaxBytes, "Largest accepted file in bytes")

	return cmd
}

func newExportInvalidCmd() *cobra.Command {
	var output, format string
	var maxBytes int64

	cmd := &cobra.Command{
		Use:   "export-invalid FILE",
		Short: "Write the rows that fail validation to a new file",
		Long: `Write the header row plus every row with a validation error, so they can
be fixed and imported separately.

Example: beneficiaries export-invalid june.xlsx -o june_errors.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("--output is required")
			}
			f, err := formatFor(output, format)
			if err != nil {
				return err
			}

			m, err := readMatrix(args[0], maxBytes)
			if err != nil {
				return err
			}
			errs := core.Validate(m)
			if core.HasFileError(errs) {
				return core.ErrEmailColumnMissing
			}

			invalid := core.InvalidRows(m, errs)
			if err := writeFile(output, func(w io.Writer) error {
				return sheet.WriteErrorExtract(w, invalid, f)
			}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows with errors to %s\n", len(invalid.DataRows()), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (.xlsx or .csv)")
	cmd.Flags().StringVar(&format, "format", "", "Output format: xlsx or csv (default: from the output name)")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", sheet.DefaultMaxBytes, "Largest accepted file in bytes")

	return cmd
}

func newTemplateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the sample workbook with the expected columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeFile(output, sheet.WriteTemplate); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote template to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "beneficiary_import_template.xlsx", "Output file")

	return cmd
}

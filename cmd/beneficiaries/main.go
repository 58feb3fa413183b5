// Command beneficiaries validates beneficiary spreadsheets and imports them
// into the CRM from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/BeneficiaryImport/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "beneficiaries",
		Short:         "Validate and import beneficiary spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is fine; the environment may already be set.
			_ = godotenv.Load()
			logging.SetupWriter(cmd.ErrOrStderr(), logLevel, "text")
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newValidateCmd(),
		newExportInvalidCmd(),
		newTemplateCmd(),
		newImportCmd(),
	)

	return rootCmd
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"salesrecon/internal/config"
	"salesrecon/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "salesrecon",
	Short: "Sales reconciliation and commission CLI",
	Long: `salesrecon attributes customer payments to sales invoices, computes
salesperson commission on timely payments and keeps the customer balance
ledger up to date with checks that are still in transit.

Source tables are read from xlsx, xls or csv files, or from a Google
spreadsheet when GOOGLE_SHEET_URL is set.`,
	Version: version,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
	rootCmd.PersistentFlags().String("ledger", "", "Ledger workbook path (default: LEDGER_PATH or data/ledger.xlsx)")
}

// loadConfig reads the environment configuration and applies the flags
// shared by all commands.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if ledger, _ := cmd.Flags().GetString("ledger"); ledger != "" {
		cfg.LedgerPath = ledger
	}
	return cfg, nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"salesrecon/internal/ledger"
	"salesrecon/internal/logger"
	"salesrecon/internal/reconciliation"
	"salesrecon/internal/tables"
)

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "Manage the check registry of the ledger",
}

var checksUpdateCmd = &cobra.Command{
	Use:   "update <file>",
	Short: "Replace the check registry and recompute balances",
	Long: `Replace the ledger's check registry with the given file and recompute
every customer balance against it.

The file needs a CheckNumber column, a CustomerCode or CustomerName column,
Amount and Status. Checks whose status contains "transit" or "در جریان" are
deducted from their owner's balance.`,
	Example: `  salesrecon checks update checks.xlsx`,
	Args:    cobra.ExactArgs(1),
	RunE:    runChecksUpdate,
}

func init() {
	rootCmd.AddCommand(checksCmd)
	checksCmd.AddCommand(checksUpdateCmd)
}

func runChecksUpdate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("checks-update")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	t, err := tables.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read check file: %w", err)
	}
	checks, notes, err := reconciliation.NewPaymentResolver().ParseChecks(t)
	if err != nil {
		return fmt.Errorf("failed to parse check file: %w", err)
	}
	for _, n := range notes {
		log.Warn().Int("row", n.Row).Str("column", n.Column).Msg(n.Reason)
	}

	view, err := ledger.New(ledger.NewXLSXStore(cfg.LedgerPath)).ApplyCheckRegistryChange(cmd.Context(), checks)
	if err != nil {
		return fmt.Errorf("failed to update ledger: %w", err)
	}

	log.Info().
		Int("checks", len(checks)).
		Str("ledger", cfg.LedgerPath).
		Msg("Check registry replaced")

	printBalances(view.Rows())
	return nil
}

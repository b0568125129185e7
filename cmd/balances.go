package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"salesrecon/internal/ledger"
	"salesrecon/internal/logger"
	"salesrecon/internal/tables"
	"salesrecon/pkg/models"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Manage the customer balance ledger",
	Long: `Manage the customer balance ledger.

Each customer's Balance is its imported RawBalance minus the checks of that
customer that are still in transit. The ledger is stored as a workbook with a
Balances sheet, ending in a Total row, and a Checks sheet.`,
}

var balancesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge a balance export into the ledger",
	Long: `Merge a balance export into the ledger.

The file needs a CustomerName column and a Balance column; CustomerCode and
OriginalName are optional. Customers are matched by normalized name and the
imported Balance becomes the customer's new RawBalance.`,
	Example: `  salesrecon balances import balances-1403-02.xlsx
  salesrecon balances import export.csv --ledger /srv/ledger.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runBalancesImport,
}

var balancesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the ledger",
	RunE:  runBalancesShow,
}

func init() {
	rootCmd.AddCommand(balancesCmd)
	balancesCmd.AddCommand(balancesImportCmd)
	balancesCmd.AddCommand(balancesShowCmd)
}

func runBalancesImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("balances-import")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	t, err := tables.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read balance file: %w", err)
	}
	incoming, err := ledger.ParseBalances(t, log)
	if err != nil {
		return fmt.Errorf("failed to parse balance file: %w", err)
	}

	log.Info().
		Str("file", args[0]).
		Str("ledger", cfg.LedgerPath).
		Int("records", len(incoming)).
		Msg("Importing balances")

	view, err := ledger.New(ledger.NewXLSXStore(cfg.LedgerPath)).ApplyIncomingBalances(cmd.Context(), incoming)
	if err != nil {
		return fmt.Errorf("failed to update ledger: %w", err)
	}

	printBalances(view.Rows())
	return nil
}

func runBalancesShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	view, err := ledger.New(ledger.NewXLSXStore(cfg.LedgerPath)).Snapshot(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	printBalances(view.Rows())
	return nil
}

func printBalances(rows []models.BalanceRecord) {
	fmt.Printf("%-12s %-32s %18s %16s %18s\n", "Code", "Customer", "RawBalance", "PendingChecks", "Balance")
	for _, r := range rows {
		fmt.Printf("%-12s %-32s %18s %16s %18s\n",
			r.CustomerKey, r.OriginalName, r.RawBalance.String(), r.PendingChecks.String(), r.Balance.String())
	}
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"salesrecon/internal/config"
	"salesrecon/internal/logger"
	"salesrecon/internal/policy"
	"salesrecon/internal/reconciliation"
	"salesrecon/internal/report"
	"salesrecon/internal/sheets"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Allocate payments to invoices and compute commission",
	Long: `Reconcile customer payments with sales invoices and compute salesperson commission.

Payments are attributed to customers through their account code or, for check
payments, through the check registry. Each customer's payments are applied to
cash invoices before normal ones and to older invoices before newer ones.
Commission accrues only on amounts paid on or before the invoice due date.

Sources are local files (--invoices, --payments, --checks) or, with
--sheet-url or GOOGLE_SHEET_URL, the sheets named by INVOICE_SHEET,
PAYMENT_SHEET and CHECK_SHEET.

Environment variables:
  POLICY_PATH - commission policy (YAML or group table), default policy.yaml
  REPORT_DIR - report directory, default reports
  GOOGLE_SHEET_URL - optional Google spreadsheet for sources and report
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS - service account for Google Sheets`,
	Example: `  # Reconcile local exports
  salesrecon reconcile --invoices sales.xlsx --payments receipts.xls --checks checks.csv

  # Use a different policy and only print the payout table
  salesrecon reconcile --invoices sales.xlsx --payments receipts.csv --policy groups.xlsx --dry-run

  # Read sources from Google Sheets and write the report back to it
  salesrecon reconcile --sheet-url https://docs.google.com/spreadsheets/d/<id>/edit --write-sheets`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().String("invoices", "", "Invoice table file (xlsx, xls, csv)")
	reconcileCmd.Flags().String("payments", "", "Payment table file (xlsx, xls, csv)")
	reconcileCmd.Flags().String("checks", "", "Check registry file (xlsx, xls, csv)")
	reconcileCmd.Flags().String("policy", "", "Policy file (default: POLICY_PATH)")
	reconcileCmd.Flags().String("sheet-url", "", "Google spreadsheet to read sources from (default: GOOGLE_SHEET_URL)")
	reconcileCmd.Flags().String("out", "", "Report directory (default: REPORT_DIR)")
	reconcileCmd.Flags().Bool("write-sheets", false, "Also write the report tables to the Google spreadsheet")
	reconcileCmd.Flags().Bool("dry-run", false, "Print the payout table without writing a report")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reconcile")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	invoicesPath, _ := cmd.Flags().GetString("invoices")
	paymentsPath, _ := cmd.Flags().GetString("payments")
	checksPath, _ := cmd.Flags().GetString("checks")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	writeSheets, _ := cmd.Flags().GetBool("write-sheets")
	if p, _ := cmd.Flags().GetString("policy"); p != "" {
		cfg.PolicyPath = p
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.ReportDir = out
	}
	if sheetURL == "" && invoicesPath == "" {
		sheetURL = cfg.GoogleSheetURL
	}

	log.Info().
		Str("invoices", invoicesPath).
		Str("payments", paymentsPath).
		Str("checks", checksPath).
		Str("policy", cfg.PolicyPath).
		Str("sheet_url", sheetURL).
		Bool("dry_run", dryRun).
		Msg("Starting reconciliation")

	ctx := cmd.Context()

	var sheetsService *sheets.Service
	if sheetURL != "" {
		sheetsService, err = sheets.NewSheetsService(ctx, sheetURL)
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		log.Info().Msg("Google Sheets service initialized successfully")
	} else if writeSheets {
		return fmt.Errorf("--write-sheets needs --sheet-url or GOOGLE_SHEET_URL")
	}

	pol, err := loadPolicy(ctx, cfg, sheetsService)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}

	var reader *reconciliation.DataReader
	var names reconciliation.InputNames
	if sheetsService != nil && invoicesPath == "" {
		reader = reconciliation.NewDataReader(sheetsService)
		names = reconciliation.InputNames{Invoices: cfg.InvoiceSheet, Payments: cfg.PaymentSheet, Checks: cfg.CheckSheet}
	} else {
		reader = reconciliation.NewDataReader(reconciliation.FileSource{})
		names = reconciliation.InputNames{Invoices: invoicesPath, Payments: paymentsPath, Checks: checksPath}
	}

	in, err := reader.ReadInputs(ctx, names)
	if err != nil {
		return fmt.Errorf("failed to read source tables: %w", err)
	}

	res, err := reconciliation.NewEngine(pol).Run(ctx, in)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	printResult(res)

	if dryRun {
		log.Info().Msg("Dry run, no report written")
		return nil
	}

	writer := report.NewWriter()
	path, err := writer.WriteXLSX(cfg.ReportDir, res)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Printf("\nReport: %s\n", path)

	if writeSheets {
		if err := writer.WriteTo(ctx, sheetsService, res); err != nil {
			return fmt.Errorf("failed to write report to Google Sheets: %w", err)
		}
		fmt.Println("Report tables written to Google Sheets")
	}

	log.Info().Str("run_id", res.RunID).Msg("Reconciliation completed successfully")
	return nil
}

// loadPolicy reads the policy file and, when configured, overrides its groups
// with the group sheet of the Google spreadsheet.
func loadPolicy(ctx context.Context, cfg *config.Config, sheetsService *sheets.Service) (*policy.Policy, error) {
	loader := policy.NewLoader()
	pol, err := loader.LoadFile(cfg.PolicyPath)
	if err != nil {
		return nil, err
	}
	if sheetsService == nil || cfg.GroupSheet == "" {
		return pol, nil
	}

	t, err := sheetsService.ReadTable(ctx, cfg.GroupSheet)
	if err != nil {
		return nil, err
	}
	groups, err := loader.GroupsFromTable(t)
	if err != nil {
		return nil, err
	}
	for key, g := range groups {
		pol.Groups[key] = g
	}
	return pol, nil
}

func printResult(res *reconciliation.Result) {
	fmt.Printf("Run %s\n", res.RunID)
	fmt.Printf("  Invoices:    %d\n", len(res.Invoices))
	fmt.Printf("  Payments:    %d resolved, %d unresolved\n", len(res.Payments), res.Notes.Count(reconciliation.NoteUnresolved))
	fmt.Printf("  Excluded:    %d rows\n", res.Notes.Count(reconciliation.NoteExcluded))
	fmt.Printf("  Defaulted:   %d cells\n", res.Notes.Count(reconciliation.NoteDefaulted))
	fmt.Printf("  Unapplied:   %d payments\n", len(res.Unapplied))

	fmt.Println()
	fmt.Printf("%-30s %8s %18s %14s\n", "Salesperson", "Invoices", "Collected", "Commission")
	for _, c := range res.Commissions {
		name := c.Salesperson
		if name == "" {
			name = "(none)"
		}
		fmt.Printf("%-30s %8d %18s %14s\n", name, c.Invoices, c.Collected.StringFixed(0), c.Commission.StringFixed(2))
	}
	fmt.Printf("%-30s %8s %18s %14s\n", "Total", "", "", res.TotalCommission().StringFixed(2))
}

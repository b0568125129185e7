// Package report renders the outputs of a reconciliation run as tables and
// writes them to an xlsx workbook or a Google spreadsheet.
package report

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"salesrecon/internal/calendar"
	"salesrecon/internal/logger"
	"salesrecon/internal/reconciliation"
	"salesrecon/internal/tables"
)

// Sheet names of a run report.
const (
	InvoicesSheet    = "Invoices"
	CommissionsSheet = "Commissions"
	PaymentsSheet    = "Payments"
	CustomersSheet   = "Customers"
	AllocationsSheet = "Allocations"
	NotesSheet       = "Notes"
)

// TableWriter receives report tables one by one. The Google Sheets service
// implements it.
type TableWriter interface {
	WriteTable(ctx context.Context, table tables.Sheet) error
}

// Writer writes run reports.
type Writer struct {
	log zerolog.Logger
}

// NewWriter creates a report writer.
func NewWriter() *Writer {
	return &Writer{log: logger.WithComponent("report")}
}

// Build renders every report table of the run. Dates are shown in solar
// form and amounts as exact decimal strings.
func Build(res *reconciliation.Result) []tables.Sheet {
	return []tables.Sheet{
		invoiceSheet(res),
		commissionSheet(res),
		paymentSheet(res),
		customerSheet(res),
		allocationSheet(res),
		noteSheet(res),
	}
}

// FileName is the workbook name of a run: reconcile-<solar date>-<run id prefix>.xlsx.
func FileName(res *reconciliation.Result) string {
	y, m, d := calendar.ToSolar(res.StartedAt)
	id := res.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("reconcile-%04d%02d%02d-%s.xlsx", y, m, d, id)
}

// WriteXLSX writes the run report into dir and returns the file path.
func (w *Writer) WriteXLSX(dir string, res *reconciliation.Result) (string, error) {
	const op = "WriteXLSX"

	path := filepath.Join(dir, FileName(res))
	if err := tables.WriteXLSX(path, Build(res)...); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	w.log.Info().
		Str("run_id", res.RunID).
		Str("path", path).
		Msg("Report written")
	return path, nil
}

// WriteTo sends every report table to the writer.
func (w *Writer) WriteTo(ctx context.Context, tw TableWriter, res *reconciliation.Result) error {
	const op = "WriteTo"

	for _, sheet := range Build(res) {
		if err := tw.WriteTable(ctx, sheet); err != nil {
			return fmt.Errorf("%s: sheet %s: %w", op, sheet.Name, err)
		}
	}

	w.log.Info().Str("run_id", res.RunID).Msg("Report written to spreadsheet")
	return nil
}

func invoiceSheet(res *reconciliation.Result) tables.Sheet {
	s := tables.Sheet{
		Name: InvoicesSheet,
		Header: []string{"InvoiceID", "CustomerKey", "CustomerName", "ProductGroup", "Salesperson",
			"InvoiceDate", "DueDate", "Priority", "CommissionPercent", "Amount", "PaidAmount", "Remaining", "CommissionAmount"},
	}
	for _, inv := range res.Invoices {
		s.Rows = append(s.Rows, []any{
			inv.InvoiceID, inv.CustomerKey, inv.CustomerName, inv.ProductGroupKey, inv.Salesperson,
			calendar.FormatAsSolar(inv.InvoiceDate), calendar.FormatAsSolar(inv.DueDate), string(inv.Priority),
			amount(inv.CommissionPercent), amount(inv.Amount), amount(inv.PaidAmount), amount(inv.Remaining), amount(inv.CommissionAmount),
		})
	}
	return s
}

func commissionSheet(res *reconciliation.Result) tables.Sheet {
	s := tables.Sheet{
		Name:   CommissionsSheet,
		Header: []string{"Salesperson", "Invoices", "Collected", "Commission"},
	}
	for _, c := range res.Commissions {
		s.Rows = append(s.Rows, []any{c.Salesperson, strconv.Itoa(c.Invoices), amount(c.Collected), amount(c.Commission)})
	}
	s.Rows = append(s.Rows, []any{"Total", "", "", amount(res.TotalCommission())})
	return s
}

func paymentSheet(res *reconciliation.Result) tables.Sheet {
	s := tables.Sheet{
		Name:   PaymentsSheet,
		Header: []string{"PaymentID", "PaymentDate", "Amount", "SourceType", "CheckNumber", "CustomerKey", "Description"},
	}
	for _, p := range res.Payments {
		s.Rows = append(s.Rows, []any{
			p.PaymentID, calendar.FormatAsSolar(p.PaymentDate), amount(p.Amount), string(p.SourceType),
			p.CheckNumber, p.ResolvedCustomerKey, p.Description,
		})
	}
	return s
}

func customerSheet(res *reconciliation.Result) tables.Sheet {
	s := tables.Sheet{
		Name:   CustomersSheet,
		Header: []string{"CustomerKey", "CustomerName", "Invoiced", "Paid", "Remaining", "Commission", "Received", "Unapplied"},
	}
	for _, c := range res.Customers {
		s.Rows = append(s.Rows, []any{
			c.CustomerKey, c.CustomerName, amount(c.Invoiced), amount(c.Paid), amount(c.Remaining),
			amount(c.Commission), amount(c.Received), amount(c.Unapplied),
		})
	}
	return s
}

func allocationSheet(res *reconciliation.Result) tables.Sheet {
	s := tables.Sheet{
		Name:   AllocationsSheet,
		Header: []string{"PaymentID", "PaymentDate", "InvoiceID", "ProductGroup", "CustomerKey", "Amount", "Timely", "Commission"},
	}
	for _, a := range res.Allocations {
		s.Rows = append(s.Rows, []any{
			a.PaymentID, calendar.FormatAsSolar(a.PaymentDate), a.InvoiceID, a.ProductGroupKey, a.CustomerKey,
			amount(a.Amount), strconv.FormatBool(a.Timely), amount(a.Commission),
		})
	}
	for _, u := range res.Unapplied {
		s.Rows = append(s.Rows, []any{u.PaymentID, "", "", "", u.CustomerKey, amount(u.Amount), "unapplied", ""})
	}
	return s
}

func noteSheet(res *reconciliation.Result) tables.Sheet {
	s := tables.Sheet{
		Name:   NotesSheet,
		Header: []string{"Kind", "Table", "Row", "Column", "Reason"},
	}
	for _, n := range res.Notes {
		s.Rows = append(s.Rows, []any{string(n.Kind), n.Table, strconv.Itoa(n.Row), n.Column, n.Reason})
	}
	return s
}

func amount(d decimal.Decimal) string {
	return d.String()
}

package reconciliation

import (
	"time"

	"github.com/shopspring/decimal"
	"salesrecon/pkg/models"
)

// Source column names. Matching is case-insensitive and ignores spaces and
// underscores, see tables.Table.
const (
	ColInvoiceID    = "InvoiceID"
	ColInvoiceDate  = "InvoiceDate"
	ColDueDate      = "DueDate"
	ColCustomerCode = "CustomerCode"
	ColCustomerName = "CustomerName"
	ColProductCode  = "ProductCode"
	ColProductGroup = "ProductGroup"
	ColAmount       = "Amount"
	ColSalesperson  = "Salesperson"

	ColPaymentID   = "PaymentID"
	ColPaymentDate = "PaymentDate"
	ColSourceType  = "SourceType"
	ColDescription = "Description"

	ColCheckNumber = "CheckNumber"
	ColStatus      = "Status"
)

// NoteKind classifies a recoverable condition met while reading a row.
type NoteKind string

const (
	// NoteDefaulted means a value could not be read and a default was used.
	NoteDefaulted NoteKind = "defaulted"
	// NoteExcluded means the row was filtered out by policy or missing identity.
	NoteExcluded NoteKind = "excluded"
	// NoteUnresolved means a payment could not be attributed to a customer.
	NoteUnresolved NoteKind = "unresolved"
)

// Note records a recoverable condition. Row is the spreadsheet row number
// (header is row 1).
type Note struct {
	Kind   NoteKind
	Table  string
	Row    int
	Column string
	Reason string
}

// Notes is a list of notes with small query helpers for reporting and tests.
type Notes []Note

// Count returns how many notes have the given kind.
func (ns Notes) Count(kind NoteKind) int {
	n := 0
	for _, note := range ns {
		if note.Kind == kind {
			n++
		}
	}
	return n
}

// ForRow returns the notes of one row of a table.
func (ns Notes) ForRow(table string, row int) Notes {
	var out Notes
	for _, note := range ns {
		if note.Table == table && note.Row == row {
			out = append(out, note)
		}
	}
	return out
}

// Allocation is one step of applying a payment to an invoice.
type Allocation struct {
	PaymentID       string
	InvoiceID       string
	ProductGroupKey string
	CustomerKey     string
	PaymentDate     time.Time
	Amount          decimal.Decimal
	Timely          bool
	Commission      decimal.Decimal
}

// Unapplied is the part of a payment left over once every invoice of its
// customer was settled. It is reported, not carried forward as credit.
type Unapplied struct {
	PaymentID   string
	CustomerKey string
	Amount      decimal.Decimal
}

// CommissionTotal is one line of the salesperson payout table.
type CommissionTotal struct {
	Salesperson string
	Invoices    int
	Collected   decimal.Decimal
	Commission  decimal.Decimal
}

// CustomerSummary aggregates one customer's position after allocation.
type CustomerSummary struct {
	CustomerKey  string
	CustomerName string
	Invoiced     decimal.Decimal
	Paid         decimal.Decimal
	Remaining    decimal.Decimal
	Commission   decimal.Decimal
	Received     decimal.Decimal
	Unapplied    decimal.Decimal
}

// Result is everything a reconciliation run produces.
type Result struct {
	RunID       string
	StartedAt   time.Time
	Invoices    []models.Invoice
	Payments    []models.Payment
	Checks      []models.Check
	Allocations []Allocation
	Unapplied   []Unapplied
	Commissions []CommissionTotal
	Customers   []CustomerSummary
	Notes       Notes
}

// TotalCommission sums the payout table.
func (r *Result) TotalCommission() decimal.Decimal {
	total := decimal.Zero
	for _, c := range r.Commissions {
		total = total.Add(c.Commission)
	}
	return total
}

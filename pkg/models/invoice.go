package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Priority is the settlement class of an invoice.
type Priority string

const (
	PriorityCash   Priority = "cash"
	PriorityNormal Priority = "normal"
)

// Rank orders priorities for allocation: cash invoices are exhausted first.
func (p Priority) Rank() int {
	if p == PriorityCash {
		return 0
	}
	return 1
}

type Invoice struct {
	// Identity
	InvoiceID       string // Sales document number (or ROW-<n> when the source has none)
	CustomerKey     string // Canonical customer key, see identity.CustomerKey
	CustomerName    string // Normalized customer name
	ProductGroupKey string // Canonical product group key
	Salesperson     string // Normalized salesperson name

	// Dates (Gregorian). Zero value means unknown.
	InvoiceDate time.Time
	DueDate     time.Time

	// Policy
	Priority          Priority
	CommissionPercent decimal.Decimal // Fraction in [0,1], e.g. 0.02 for 2%

	// Amounts
	Amount           decimal.Decimal // >= 0
	PaidAmount       decimal.Decimal // >= 0
	Remaining        decimal.Decimal // Amount - PaidAmount, never negative
	CommissionAmount decimal.Decimal // Accrued on timely allocations only
}

// PriorityRank is the numeric sort key of the invoice priority.
func (inv *Invoice) PriorityRank() int {
	return inv.Priority.Rank()
}

// IsOpen reports whether the invoice still has an unpaid balance.
func (inv *Invoice) IsOpen() bool {
	return inv.Remaining.IsPositive()
}

// HasDueDate reports whether a due date could be derived for the invoice.
func (inv *Invoice) HasDueDate() bool {
	return !inv.DueDate.IsZero()
}

// IsBalanced checks the conservation rule PaidAmount + Remaining == Amount.
func (inv *Invoice) IsBalanced() bool {
	return inv.PaidAmount.Add(inv.Remaining).Equal(inv.Amount)
}

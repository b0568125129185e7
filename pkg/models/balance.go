package models

import "github.com/shopspring/decimal"

// SummaryName is the CustomerName of the synthetic trailing total row.
const SummaryName = "Total"

// BalanceRecord is one customer row of the balance ledger.
type BalanceRecord struct {
	CustomerKey   string // Canonical customer code, may be empty
	CustomerName  string // Normalized name, the ledger key
	OriginalName  string // Display form as imported
	RawBalance    decimal.Decimal
	PendingChecks decimal.Decimal
	Balance       decimal.Decimal // RawBalance - PendingChecks
}

// IsSummary reports whether the record is the derived total row.
func (r *BalanceRecord) IsSummary() bool {
	return r.CustomerName == SummaryName && r.CustomerKey == ""
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceType tells how a payment reached the business.
type SourceType string

const (
	SourceCustomerAccount SourceType = "CustomerAccount"
	SourceCheck           SourceType = "Check"
	SourceUnknown         SourceType = ""
)

type Payment struct {
	PaymentID   string
	PaymentDate time.Time // Zero value means the source date could not be parsed
	Amount      decimal.Decimal
	SourceType  SourceType
	Description string

	// ResolvedCustomerKey is empty when the payment could not be attributed to a customer.
	ResolvedCustomerKey string
	// CheckNumber is the canonical check number the payment was resolved through, if any.
	CheckNumber string
}

// IsResolved reports whether the payment was attributed to a customer.
func (p *Payment) IsResolved() bool {
	return p.ResolvedCustomerKey != ""
}

// HasDate reports whether the payment carries a usable date.
func (p *Payment) HasDate() bool {
	return !p.PaymentDate.IsZero()
}

// Participates reports whether the payment takes part in allocation.
func (p *Payment) Participates() bool {
	return p.IsResolved() && p.Amount.IsPositive()
}

package models

import "github.com/shopspring/decimal"

// Check is an entry of the check registry.
type Check struct {
	CheckNumber  string // Canonical, leading zeros stripped
	CustomerKey  string // Canonical customer key of the owner
	CustomerCode string // Canonical customer code, empty when the registry only names the owner
	CustomerName string // Normalized owner name
	Amount       decimal.Decimal
	Status       string // Free text as entered
}

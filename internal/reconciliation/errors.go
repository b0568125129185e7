package reconciliation

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when a non-empty table lacks a required column.
	ErrMissingColumn = errors.New("required column missing")

	// ErrMissingProductColumn is returned when an invoice table has neither a
	// product code nor a product group column.
	ErrMissingProductColumn = errors.New("invoice table has neither ProductCode nor ProductGroup")
)

// SchemaError is the one fatal input condition: a required column is absent
// from a non-empty table. Bad cell values never produce it.
type SchemaError struct {
	Table  string
	Column string
	Err    error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: table '%s' column '%s': %v", e.Table, e.Column, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

func missingColumn(table, column string) *SchemaError {
	return &SchemaError{Table: table, Column: column, Err: ErrMissingColumn}
}

package policy

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPolicy is returned when a policy document fails validation.
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrUnsupportedPolicyFormat is returned for policy files that are neither
	// YAML nor a spreadsheet.
	ErrUnsupportedPolicyFormat = errors.New("unsupported policy format")
)

// PolicyError describes one invalid field of a policy document.
type PolicyError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface.
func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy: field '%s' %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidPolicy.
func (e *PolicyError) Unwrap() error {
	return ErrInvalidPolicy
}

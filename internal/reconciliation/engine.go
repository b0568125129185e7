// Package reconciliation attributes payments to customers, normalizes sales
// invoices under the commission policy and allocates payments to invoices to
// compute salesperson commission.
//
// A run is a pure batch transform over the tables handed to Engine.Run; the
// engine keeps no state between runs.
package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"salesrecon/internal/logger"
	"salesrecon/internal/policy"
	"salesrecon/internal/tables"
)

// RunInput carries the source tables of one run. Checks may be nil or empty.
type RunInput struct {
	Invoices *tables.Table
	Payments *tables.Table
	Checks   *tables.Table
}

// Engine runs reconciliations under a fixed policy.
type Engine struct {
	policy *policy.Policy
	log    zerolog.Logger
	now    func() time.Time
}

// NewEngine creates an engine. A nil policy behaves as an empty one.
func NewEngine(p *policy.Policy) *Engine {
	if p == nil {
		p = policy.New()
	}
	return &Engine{
		policy: p,
		log:    logger.WithComponent("reconciliation-engine"),
		now:    time.Now,
	}
}

// Run resolves payments, normalizes invoices, allocates and aggregates. It
// fails only when a source table misses a required column.
func (e *Engine) Run(ctx context.Context, in RunInput) (*Result, error) {
	const op = "Run"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: e.now(),
	}
	log := logger.WithRunID(e.log, res.RunID)

	log.Info().Msg("Starting reconciliation run")

	resolver := NewPaymentResolver()
	checks, notes, err := resolver.ParseChecks(in.Checks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res.Checks = checks
	res.Notes = append(res.Notes, notes...)

	invoices, invoiceNotes, err := NewSalesNormalizer(e.policy).Normalize(in.Invoices)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	registry := NewCheckRegistry(checks)
	if linked := registry.LinkOwners(NewCustomerIndex(invoices)); linked > 0 {
		log.Debug().Int("checks", linked).Msg("Name-registered checks linked to invoice customers")
	}

	payments, notes, err := resolver.ResolvePayments(in.Payments, registry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res.Notes = append(res.Notes, notes...)
	res.Notes = append(res.Notes, invoiceNotes...)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := Allocate(invoices, payments)
	res.Invoices = out.Invoices
	res.Payments = payments
	res.Allocations = out.Allocations
	res.Unapplied = out.Unapplied
	res.Commissions = CommissionBySalesperson(res.Invoices)
	res.Customers = CustomerSummaries(res.Invoices, res.Payments, res.Unapplied)

	log.Info().
		Int("invoices", len(res.Invoices)).
		Int("payments", len(res.Payments)).
		Int("allocations", len(res.Allocations)).
		Int("unapplied", len(res.Unapplied)).
		Int("unresolved", res.Notes.Count(NoteUnresolved)).
		Int("excluded", res.Notes.Count(NoteExcluded)).
		Str("total_commission", res.TotalCommission().String()).
		Msg("Reconciliation run completed")

	return res, nil
}

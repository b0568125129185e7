// Package ledger keeps the customer balance ledger: imported raw balances
// reduced by the checks that are still in transit, plus a derived total row.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"salesrecon/internal/identity"
	"salesrecon/internal/logger"
	"salesrecon/pkg/models"
)

// ErrLedgerCorrupt is returned when a persisted ledger cannot be read back.
var ErrLedgerCorrupt = errors.New("ledger is corrupt")

// InTransitMarkers are the status substrings of checks not yet cleared.
var InTransitMarkers = []string{"in transit", "transit", "در جریان"}

// IsInTransit reports whether a check status marks the check as in transit.
func IsInTransit(status string) bool {
	s := strings.ToLower(identity.NormalizeName(status))
	if s == "" {
		return false
	}
	for _, m := range InTransitMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// State is everything a Store persists.
type State struct {
	Records []models.BalanceRecord
	Checks  []models.Check
}

// Store loads and saves the full ledger state. Save replaces what was
// stored; there are no partial updates.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

// Recompute derives PendingChecks and Balance for every record and returns
// the records together with the total row. Summary rows in the input are
// dropped, so the call is idempotent. Input slices are not modified.
func Recompute(records []models.BalanceRecord, checks []models.Check) ([]models.BalanceRecord, models.BalanceRecord) {
	out := make([]models.BalanceRecord, 0, len(records))
	total := decimal.Zero

	for _, r := range records {
		if r.IsSummary() {
			continue
		}
		pending := decimal.Zero
		for i := range checks {
			if IsInTransit(checks[i].Status) && owns(&checks[i], &r) {
				pending = pending.Add(checks[i].Amount)
			}
		}
		r.PendingChecks = pending
		r.Balance = r.RawBalance.Sub(pending)
		total = total.Add(r.Balance)
		out = append(out, r)
	}

	summary := models.BalanceRecord{
		CustomerName:  models.SummaryName,
		OriginalName:  models.SummaryName,
		RawBalance:    decimal.Zero,
		PendingChecks: decimal.Zero,
		Balance:       total,
	}
	for _, r := range out {
		summary.RawBalance = summary.RawBalance.Add(r.RawBalance)
		summary.PendingChecks = summary.PendingChecks.Add(r.PendingChecks)
	}

	return out, summary
}

// owns reports whether the check belongs to the customer of the record:
// equal canonical codes or equal name match keys.
func owns(c *models.Check, r *models.BalanceRecord) bool {
	if c.CustomerCode != "" && c.CustomerCode == r.CustomerKey {
		return true
	}
	name := identity.NameMatchKey(c.CustomerName)
	if name == "" {
		return false
	}
	return name == identity.NameMatchKey(r.CustomerName) || name == identity.NameMatchKey(r.OriginalName)
}

// MergeBalances merges incoming records into existing ones keyed by
// normalized customer name. The incoming Balance becomes the new RawBalance;
// when a name repeats, the last record wins. Existing order is kept and new
// customers are appended.
func MergeBalances(existing, incoming []models.BalanceRecord) []models.BalanceRecord {
	merged := make([]models.BalanceRecord, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))

	put := func(r models.BalanceRecord) {
		key := identity.NameMatchKey(r.CustomerName)
		if i, ok := index[key]; ok {
			merged[i] = r
			return
		}
		index[key] = len(merged)
		merged = append(merged, r)
	}

	for _, r := range existing {
		if r.IsSummary() {
			continue
		}
		put(r)
	}
	for _, r := range incoming {
		if r.IsSummary() || identity.NameMatchKey(r.CustomerName) == "" {
			continue
		}
		r.CustomerName = identity.NormalizeName(r.CustomerName)
		r.CustomerKey = identity.CanonicalizeCode(r.CustomerKey)
		r.RawBalance = r.Balance
		put(r)
	}
	return merged
}

// Ledger serializes updates to a Store. Every update reads the full state,
// recomputes it and writes a full replacement.
type Ledger struct {
	mu    sync.Mutex
	store Store
	log   zerolog.Logger
}

// New creates a ledger over the store.
func New(store Store) *Ledger {
	return &Ledger{
		store: store,
		log:   logger.WithComponent("ledger"),
	}
}

// View is a recomputed ledger ready for display.
type View struct {
	Records []models.BalanceRecord
	Summary models.BalanceRecord
	Checks  []models.Check
}

// Rows returns the records followed by the total row.
func (v View) Rows() []models.BalanceRecord {
	return append(append([]models.BalanceRecord(nil), v.Records...), v.Summary)
}

// Snapshot loads and recomputes the ledger without writing it.
func (l *Ledger) Snapshot(ctx context.Context) (View, error) {
	const op = "Snapshot"

	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.store.Load(ctx)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	records, summary := Recompute(state.Records, state.Checks)
	return View{Records: records, Summary: summary, Checks: state.Checks}, nil
}

// ApplyIncomingBalances merges a new balance import and recomputes.
func (l *Ledger) ApplyIncomingBalances(ctx context.Context, incoming []models.BalanceRecord) (View, error) {
	const op = "ApplyIncomingBalances"

	return l.update(ctx, op, func(s State) State {
		s.Records = MergeBalances(s.Records, incoming)
		l.log.Info().
			Int("incoming", len(incoming)).
			Int("customers", len(s.Records)).
			Msg("Merged incoming balances")
		return s
	})
}

// ApplyCheckRegistryChange replaces the stored check registry and
// recomputes the existing balances against it.
func (l *Ledger) ApplyCheckRegistryChange(ctx context.Context, checks []models.Check) (View, error) {
	const op = "ApplyCheckRegistryChange"

	return l.update(ctx, op, func(s State) State {
		s.Checks = append([]models.Check(nil), checks...)
		l.log.Info().
			Int("checks", len(checks)).
			Msg("Replaced check registry")
		return s
	})
}

func (l *Ledger) update(ctx context.Context, op string, change func(State) State) (View, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.store.Load(ctx)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	state = change(state)
	records, summary := Recompute(state.Records, state.Checks)
	state.Records = records

	if err := l.store.Save(ctx, state); err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	l.log.Debug().
		Int("customers", len(records)).
		Str("total", summary.Balance.String()).
		Msg("Ledger recomputed and saved")

	return View{Records: records, Summary: summary, Checks: state.Checks}, nil
}

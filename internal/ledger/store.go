package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"salesrecon/internal/identity"
	"salesrecon/internal/logger"
	"salesrecon/internal/tables"
	"salesrecon/pkg/models"
)

// Workbook layout of the persisted ledger.
const (
	BalancesSheet = "Balances"
	ChecksSheet   = "Checks"
)

var (
	balanceHeader = []string{"CustomerCode", "CustomerName", "OriginalName", "Balance", "RawBalance", "PendingChecks"}
	checkHeader   = []string{"CheckNumber", "CustomerCode", "CustomerName", "Amount", "Status"}
)

// MemoryStore keeps the ledger in memory.
type MemoryStore struct {
	mu    sync.Mutex
	state State
}

// NewMemoryStore returns a store seeded with state.
func NewMemoryStore(state State) *MemoryStore {
	return &MemoryStore{state: copyState(state)}
}

// Load returns a copy of the stored state.
func (m *MemoryStore) Load(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyState(m.state), ctx.Err()
}

// Save replaces the stored state.
func (m *MemoryStore) Save(ctx context.Context, state State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = copyState(state)
	return nil
}

func copyState(s State) State {
	return State{
		Records: append([]models.BalanceRecord(nil), s.Records...),
		Checks:  append([]models.Check(nil), s.Checks...),
	}
}

// XLSXStore persists the ledger as a workbook with a Balances sheet, ending
// in the total row, and a Checks sheet.
type XLSXStore struct {
	path string
	log  zerolog.Logger
}

// NewXLSXStore creates a store for the workbook at path. The file is created
// on first save.
func NewXLSXStore(path string) *XLSXStore {
	return &XLSXStore{
		path: path,
		log:  logger.WithComponent("ledger-store"),
	}
}

// Load reads the workbook. A missing file is an empty ledger.
func (s *XLSXStore) Load(ctx context.Context) (State, error) {
	const op = "Load"

	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		s.log.Info().Str("path", s.path).Msg("Ledger file does not exist yet, starting empty")
		return State{}, nil
	}

	balances, err := tables.ReadXLSXSheet(s.path, BalancesSheet)
	if err != nil {
		return State{}, fmt.Errorf("%s: %w: %v", op, ErrLedgerCorrupt, err)
	}
	records, err := parseBalances("parseStoredBalances", balances, "RawBalance", s.log)
	if err != nil {
		return State{}, fmt.Errorf("%s: %w", op, err)
	}

	checkTable, err := tables.ReadXLSXSheet(s.path, ChecksSheet)
	if err != nil {
		return State{}, fmt.Errorf("%s: %w: %v", op, ErrLedgerCorrupt, err)
	}
	checks, err := parseStoredChecks(checkTable)
	if err != nil {
		return State{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug().
		Str("path", s.path).
		Int("customers", len(records)).
		Int("checks", len(checks)).
		Msg("Ledger loaded")

	return State{Records: records, Checks: checks}, nil
}

// Save writes the whole workbook, recomputing the total row.
func (s *XLSXStore) Save(ctx context.Context, state State) error {
	const op = "Save"

	if err := ctx.Err(); err != nil {
		return err
	}

	records, summary := Recompute(state.Records, state.Checks)
	if err := tables.WriteXLSX(s.path, BalanceSheet(records, summary), CheckSheet(state.Checks)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().
		Str("path", s.path).
		Int("customers", len(records)).
		Msg("Ledger saved")
	return nil
}

// BalanceSheet renders records and the total row in the persisted layout.
func BalanceSheet(records []models.BalanceRecord, summary models.BalanceRecord) tables.Sheet {
	sheet := tables.Sheet{Name: BalancesSheet, Header: balanceHeader}
	for _, r := range append(append([]models.BalanceRecord(nil), records...), summary) {
		sheet.Rows = append(sheet.Rows, []any{
			r.CustomerKey, r.CustomerName, r.OriginalName,
			r.Balance.String(), r.RawBalance.String(), r.PendingChecks.String(),
		})
	}
	return sheet
}

// CheckSheet renders the check registry.
func CheckSheet(checks []models.Check) tables.Sheet {
	sheet := tables.Sheet{Name: ChecksSheet, Header: checkHeader}
	for _, c := range checks {
		sheet.Rows = append(sheet.Rows, []any{
			c.CheckNumber, c.CustomerCode, c.CustomerName, c.Amount.String(), c.Status,
		})
	}
	return sheet
}

// ParseBalances reads a balance export with a CustomerName column and a
// Balance or RawBalance column. The incoming Balance becomes the new raw
// balance; RawBalance is read only when the table has no Balance column.
// Total rows are skipped and unparsable amounts read as zero.
func ParseBalances(t *tables.Table, log zerolog.Logger) ([]models.BalanceRecord, error) {
	return parseBalances("ParseBalances", t, "Balance", log)
}

// parseBalances reads balance rows, taking the raw balance from the preferred
// column when the table has it and from the other balance column otherwise.
func parseBalances(op string, t *tables.Table, preferred string, log zerolog.Logger) ([]models.BalanceRecord, error) {
	if t.IsEmpty() {
		return nil, nil
	}
	if !t.Has("CustomerName") || !t.HasAny("RawBalance", "Balance") {
		return nil, fmt.Errorf("%s: table '%s' needs CustomerName and Balance columns: %w", op, t.Name, ErrLedgerCorrupt)
	}

	column := preferred
	if !t.Has(column) {
		column = "Balance"
		if preferred == "Balance" {
			column = "RawBalance"
		}
	}

	var records []models.BalanceRecord
	for i := 0; i < t.Len(); i++ {
		name := identity.NormalizeName(t.Value(i, "CustomerName"))
		code := identity.CanonicalizeCode(t.Value(i, "CustomerCode"))
		if name == "" || (name == models.SummaryName && code == "") {
			continue
		}

		raw, err := tables.ParseAmount(t.Value(i, column))
		if err != nil {
			log.Warn().Err(err).Int("row", i+2).Str("customer", name).Msg("Invalid balance, using 0")
			raw = decimal.Zero
		}

		original := t.Value(i, "OriginalName")
		if original == "" {
			original = t.Value(i, "CustomerName")
		}

		records = append(records, models.BalanceRecord{
			CustomerKey:   code,
			CustomerName:  name,
			OriginalName:  original,
			RawBalance:    raw,
			PendingChecks: decimal.Zero,
			Balance:       raw,
		})
	}
	return records, nil
}

func parseStoredChecks(t *tables.Table) ([]models.Check, error) {
	if t.IsEmpty() {
		return nil, nil
	}
	if !t.Has("CheckNumber") {
		return nil, fmt.Errorf("parseStoredChecks: sheet '%s' has no CheckNumber column: %w", t.Name, ErrLedgerCorrupt)
	}

	var checks []models.Check
	for i := 0; i < t.Len(); i++ {
		amount, err := tables.ParseAmount(t.Value(i, "Amount"))
		if err != nil {
			amount = decimal.Zero
		}
		code := identity.CanonicalizeCode(t.Value(i, "CustomerCode"))
		name := identity.NormalizeName(t.Value(i, "CustomerName"))
		checks = append(checks, models.Check{
			CheckNumber:  identity.CanonicalizeCode(t.Value(i, "CheckNumber")),
			CustomerKey:  identity.CustomerKey(code, name),
			CustomerCode: code,
			CustomerName: name,
			Amount:       amount,
			Status:       t.Value(i, "Status"),
		})
	}
	return checks, nil
}

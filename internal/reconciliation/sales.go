package reconciliation

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"salesrecon/internal/calendar"
	"salesrecon/internal/identity"
	"salesrecon/internal/logger"
	"salesrecon/internal/policy"
	"salesrecon/internal/tables"
	"salesrecon/pkg/models"
)

// invoiceLine is one source row after parsing, before aggregation.
type invoiceLine struct {
	row          int
	invoiceID    string
	customerKey  string
	customerName string
	groupKey     string
	groupLabel   string
	salesperson  string
	invoiceDate  time.Time
	dueDate      time.Time
	amount       decimal.Decimal
}

func (l invoiceLine) key() string {
	return l.invoiceID + "\x00" + l.customerKey + "\x00" + l.groupKey + "\x00" + l.salesperson
}

// SalesNormalizer turns raw invoice rows into typed invoices ready for
// allocation.
type SalesNormalizer struct {
	policy *policy.Policy
	log    zerolog.Logger
}

// NewSalesNormalizer creates a normalizer for the given policy. A nil policy
// behaves as an empty one.
func NewSalesNormalizer(p *policy.Policy) *SalesNormalizer {
	if p == nil {
		p = policy.New()
	}
	return &SalesNormalizer{
		policy: p,
		log:    logger.WithComponent("sales-normalizer"),
	}
}

// Normalize filters, prices and dates the invoice table. Lines sharing
// invoice, customer, product group and salesperson are summed into one
// invoice. The result is sorted by customer and allocation order.
func (sn *SalesNormalizer) Normalize(t *tables.Table) ([]models.Invoice, Notes, error) {
	const op = "Normalize"

	if t.IsEmpty() {
		return nil, nil, nil
	}
	if err := sn.checkSchema(t); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	var notes Notes
	var order []string
	lines := make(map[string][]invoiceLine)

	for i := 0; i < t.Len(); i++ {
		line, lineNotes, ok := sn.parseLine(t, i)
		notes = append(notes, lineNotes...)
		if !ok {
			continue
		}
		k := line.key()
		if _, seen := lines[k]; !seen {
			order = append(order, k)
		}
		lines[k] = append(lines[k], line)
	}

	invoices := make([]models.Invoice, 0, len(order))
	for _, k := range order {
		inv, invNotes, ok := sn.buildInvoice(t.Name, lines[k])
		notes = append(notes, invNotes...)
		if ok {
			invoices = append(invoices, inv)
		}
	}
	SortInvoices(invoices)

	sn.log.Info().
		Str("table", t.Name).
		Int("rows", t.Len()).
		Int("invoices", len(invoices)).
		Int("excluded", notes.Count(NoteExcluded)).
		Msg("Invoices normalized")

	return invoices, notes, nil
}

func (sn *SalesNormalizer) checkSchema(t *tables.Table) error {
	for _, col := range []string{ColInvoiceDate, ColAmount} {
		if !t.Has(col) {
			return missingColumn(t.Name, col)
		}
	}
	if !t.HasAny(ColProductCode, ColProductGroup) {
		return &SchemaError{Table: t.Name, Column: ColProductCode + "|" + ColProductGroup, Err: ErrMissingProductColumn}
	}
	return nil
}

// parseLine reads one row and applies the eligibility filters.
func (sn *SalesNormalizer) parseLine(t *tables.Table, i int) (invoiceLine, Notes, bool) {
	row := i + 2
	var notes Notes
	exclude := func(col, reason string) (invoiceLine, Notes, bool) {
		notes = append(notes, Note{Kind: NoteExcluded, Table: t.Name, Row: row, Column: col, Reason: reason})
		return invoiceLine{}, notes, false
	}

	rawGroup := t.First(i, ColProductGroup, ColProductCode)
	line := invoiceLine{
		row:          row,
		invoiceID:    t.Value(i, ColInvoiceID),
		customerName: identity.NormalizeName(t.Value(i, ColCustomerName)),
		groupKey:     identity.CanonicalizeCode(rawGroup),
		groupLabel:   rawGroup,
		salesperson:  identity.NormalizeName(t.Value(i, ColSalesperson)),
	}
	if line.invoiceID == "" {
		line.invoiceID = fmt.Sprintf("ROW-%d", row)
	}
	code := t.Value(i, ColCustomerCode)

	if !sn.policy.MarketerAllowed(line.salesperson) {
		return exclude(ColSalesperson, "salesperson not in allowed marketers")
	}
	if sn.policy.ProductBanned(line.groupKey) {
		return exclude(ColProductGroup, "product group blacklisted")
	}
	if sn.policy.CustomerBanned(code, line.customerName) {
		return exclude(ColCustomerCode, "customer blacklisted")
	}
	line.customerKey = identity.CustomerKey(code, line.customerName)
	if line.customerKey == "" {
		return exclude(ColCustomerCode, "no customer code or name")
	}

	amount, err := tables.ParseAmount(t.Value(i, ColAmount))
	if err != nil {
		notes = append(notes, Note{Kind: NoteDefaulted, Table: t.Name, Row: row, Column: ColAmount, Reason: err.Error()})
		amount = decimal.Zero
	}
	line.amount = amount

	if d, ok := calendar.ParseFlexibleDate(t.Value(i, ColInvoiceDate)); ok {
		line.invoiceDate = d
	} else {
		notes = append(notes, Note{Kind: NoteDefaulted, Table: t.Name, Row: row, Column: ColInvoiceDate, Reason: "unparsable invoice date"})
	}
	if raw := t.Value(i, ColDueDate); raw != "" {
		if d, ok := calendar.ParseFlexibleDate(raw); ok {
			line.dueDate = d
		} else {
			notes = append(notes, Note{Kind: NoteDefaulted, Table: t.Name, Row: row, Column: ColDueDate, Reason: "unparsable due date, derived from policy"})
		}
	}

	return line, notes, true
}

// buildInvoice sums the lines of one invoice and applies due date, priority
// and commission policy.
func (sn *SalesNormalizer) buildInvoice(table string, lines []invoiceLine) (models.Invoice, Notes, bool) {
	first := lines[0]
	amount := decimal.Zero
	invoiceDate, dueDate := first.invoiceDate, first.dueDate
	for _, l := range lines {
		amount = amount.Add(l.amount)
		invoiceDate = earliest(invoiceDate, l.invoiceDate)
		dueDate = earliest(dueDate, l.dueDate)
	}

	var notes Notes
	if amount.IsNegative() {
		notes = append(notes, Note{Kind: NoteExcluded, Table: table, Row: first.row, Column: ColAmount,
			Reason: fmt.Sprintf("invoice %s nets to negative amount %s", first.invoiceID, amount)})
		return models.Invoice{}, notes, false
	}

	group, configured := sn.policy.Groups.Lookup(first.groupKey)
	label := first.groupLabel
	if configured && group.Name != "" {
		label = group.Name
	}

	if dueDate.IsZero() && !invoiceDate.IsZero() {
		days := group.DueDays
		if !group.HasDueDays() {
			days = sn.policy.FallbackDueDays(label)
		}
		dueDate = invoiceDate.AddDate(0, 0, days)
	}

	priority, defaulted := sn.priority(group, configured, label, invoiceDate, dueDate)
	if defaulted {
		notes = append(notes, Note{Kind: NoteDefaulted, Table: table, Row: first.row, Column: ColProductGroup,
			Reason: fmt.Sprintf("group '%s' has no policy entry, settled as %s", first.groupKey, priority)})
	}

	percent := decimal.Zero
	if configured {
		percent = group.Percent
	}

	return models.Invoice{
		InvoiceID:         first.invoiceID,
		CustomerKey:       first.customerKey,
		CustomerName:      first.customerName,
		ProductGroupKey:   first.groupKey,
		Salesperson:       first.salesperson,
		InvoiceDate:       invoiceDate,
		DueDate:           dueDate,
		Priority:          priority,
		CommissionPercent: percent,
		Amount:            amount,
		PaidAmount:        decimal.Zero,
		Remaining:         amount,
		CommissionAmount:  decimal.Zero,
	}, notes, true
}

// priority picks the settlement class: the configured cash flag, then a
// short payment term, then the label heuristic. defaulted reports that the
// heuristic settled a group without any policy entry as normal.
func (sn *SalesNormalizer) priority(g policy.Group, configured bool, label string, invoiceDate, dueDate time.Time) (p models.Priority, defaulted bool) {
	if g.IsCash != nil {
		if *g.IsCash {
			return models.PriorityCash, false
		}
		return models.PriorityNormal, false
	}
	if !invoiceDate.IsZero() && !dueDate.IsZero() &&
		calendar.DaysBetween(invoiceDate, dueDate) <= policy.CashTermMaxDays {
		return models.PriorityCash, false
	}
	if sn.policy.LooksCash(label) {
		return models.PriorityCash, false
	}
	return models.PriorityNormal, !configured
}

func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	}
	return a
}

// SortInvoices orders invoices by customer, then in allocation order.
func SortInvoices(invoices []models.Invoice) {
	sort.SliceStable(invoices, func(i, j int) bool {
		if invoices[i].CustomerKey != invoices[j].CustomerKey {
			return invoices[i].CustomerKey < invoices[j].CustomerKey
		}
		return invoiceBefore(&invoices[i], &invoices[j])
	})
}

// invoiceBefore is the allocation order within one customer: cash before
// normal, then oldest first. The remaining keys only break ties so the
// order never depends on input row order.
func invoiceBefore(a, b *models.Invoice) bool {
	if a.PriorityRank() != b.PriorityRank() {
		return a.PriorityRank() < b.PriorityRank()
	}
	if !a.InvoiceDate.Equal(b.InvoiceDate) {
		return a.InvoiceDate.Before(b.InvoiceDate)
	}
	if a.InvoiceID != b.InvoiceID {
		return a.InvoiceID < b.InvoiceID
	}
	if a.ProductGroupKey != b.ProductGroupKey {
		return a.ProductGroupKey < b.ProductGroupKey
	}
	return a.Salesperson < b.Salesperson
}

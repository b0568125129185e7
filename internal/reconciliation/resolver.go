package reconciliation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"salesrecon/internal/calendar"
	"salesrecon/internal/identity"
	"salesrecon/internal/logger"
	"salesrecon/internal/tables"
	"salesrecon/pkg/models"
)

// checkTokenPatterns find a check number in free-text payment descriptions,
// most specific first.
var checkTokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bCHK[\s\-_#:]*(\d+)`),
	regexp.MustCompile(`(?i)(?:cheque|check|چک)\s*(?:no\.?|number|nr\.?|#|شماره|ش\.?)?\s*[:#\-]?\s*(\d{3,})`),
}

// ExtractCheckNumber returns the canonical check number embedded in text, or
// "" when none is found.
func ExtractCheckNumber(text string) string {
	text = identity.FoldDigits(text)
	for _, re := range checkTokenPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return identity.CanonicalizeCode(m[1])
		}
	}
	return ""
}

// ParseSourceType maps the spellings used in payment exports to a SourceType.
func ParseSourceType(s string) models.SourceType {
	key := strings.ToLower(strings.Join(strings.Fields(identity.NormalizeName(s)), ""))
	switch key {
	case "customeraccount", "account", "customer", "حسابمشتری", "حساب":
		return models.SourceCustomerAccount
	case "check", "cheque", "chk", "چک":
		return models.SourceCheck
	default:
		return models.SourceUnknown
	}
}

// CheckRegistry indexes checks by canonical check number.
type CheckRegistry struct {
	byNumber map[string]models.Check
}

// NewCheckRegistry indexes the checks. When a number repeats, the later
// entry wins.
func NewCheckRegistry(checks []models.Check) *CheckRegistry {
	r := &CheckRegistry{byNumber: make(map[string]models.Check, len(checks))}
	for _, c := range checks {
		if c.CheckNumber == "" {
			continue
		}
		r.byNumber[c.CheckNumber] = c
	}
	return r
}

// Lookup finds a check by number. The number is canonicalized first.
func (r *CheckRegistry) Lookup(number string) (models.Check, bool) {
	if r == nil {
		return models.Check{}, false
	}
	c, ok := r.byNumber[identity.CanonicalizeCode(number)]
	return c, ok
}

// LinkOwners rewrites name-derived check owners to the customer key the index
// knows for that name, so a check registered by name reaches invoices keyed
// by customer code. It returns how many checks were relinked.
func (r *CheckRegistry) LinkOwners(index CustomerIndex) int {
	if r == nil {
		return 0
	}
	linked := 0
	for number, c := range r.byNumber {
		key := index.Resolve(c.CustomerKey)
		if key == c.CustomerKey {
			continue
		}
		c.CustomerKey = key
		r.byNumber[number] = c
		linked++
	}
	return linked
}

// Len returns the number of distinct checks.
func (r *CheckRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byNumber)
}

// CustomerIndex maps name match keys to the customer keys used by invoices.
type CustomerIndex map[string]string

// NewCustomerIndex indexes invoice customers by name. A name carried by
// customers with different keys is ambiguous and left out.
func NewCustomerIndex(invoices []models.Invoice) CustomerIndex {
	idx := make(CustomerIndex)
	ambiguous := make(map[string]bool)
	for _, inv := range invoices {
		name := identity.NameMatchKey(inv.CustomerName)
		if name == "" || inv.CustomerKey == "" || ambiguous[name] {
			continue
		}
		if key, seen := idx[name]; seen && key != inv.CustomerKey {
			delete(idx, name)
			ambiguous[name] = true
			continue
		}
		idx[name] = inv.CustomerKey
	}
	return idx
}

// Resolve returns the invoice customer key for a name-derived key. Any other
// key, or a name the index does not know, is returned unchanged.
func (ci CustomerIndex) Resolve(key string) string {
	if !identity.IsNameKey(key) {
		return key
	}
	if k, ok := ci[strings.TrimPrefix(key, identity.NamePrefix)]; ok {
		return k
	}
	return key
}

// ResolveCustomer attributes a payment to a customer. It depends only on its
// arguments and does not modify them. accountCode is the payment row's own
// customer code. The boolean is false when the payment stays unresolved; the
// string then explains why.
func ResolveCustomer(p models.Payment, accountCode string, registry *CheckRegistry) (customerKey, checkNumber string, reason string, ok bool) {
	switch p.SourceType {
	case models.SourceCustomerAccount:
		code := identity.CanonicalizeCode(accountCode)
		if code == "" {
			return "", "", "customer account payment without customer code", false
		}
		return code, "", "", true

	case models.SourceCheck:
		number := ExtractCheckNumber(p.Description)
		if number == "" {
			return "", "", "no check number in description", false
		}
		check, found := registry.Lookup(number)
		if !found {
			return "", number, fmt.Sprintf("check %s not in registry", number), false
		}
		if check.CustomerKey == "" {
			return "", number, fmt.Sprintf("check %s has no owner", number), false
		}
		return check.CustomerKey, number, "", true

	default:
		return "", "", "unknown source type", false
	}
}

// PaymentResolver turns payment rows into customer-attributed payments.
type PaymentResolver struct {
	log zerolog.Logger
}

// NewPaymentResolver creates a resolver.
func NewPaymentResolver() *PaymentResolver {
	return &PaymentResolver{log: logger.WithComponent("payment-resolver")}
}

// ParseChecks reads the check registry table.
func (pr *PaymentResolver) ParseChecks(t *tables.Table) ([]models.Check, Notes, error) {
	const op = "ParseChecks"

	if t.IsEmpty() {
		return nil, nil, nil
	}
	if !t.Has(ColCheckNumber) {
		return nil, nil, fmt.Errorf("%s: %w", op, missingColumn(t.Name, ColCheckNumber))
	}
	if !t.HasAny(ColCustomerCode, ColCustomerName) {
		return nil, nil, fmt.Errorf("%s: %w", op, missingColumn(t.Name, ColCustomerCode+"|"+ColCustomerName))
	}

	var checks []models.Check
	var notes Notes
	for i := 0; i < t.Len(); i++ {
		row := i + 2
		number := identity.CanonicalizeCode(t.Value(i, ColCheckNumber))
		if number == "" {
			notes = append(notes, Note{Kind: NoteExcluded, Table: t.Name, Row: row, Column: ColCheckNumber, Reason: "empty check number"})
			continue
		}

		amount, err := tables.ParseAmount(t.Value(i, ColAmount))
		if err != nil {
			notes = append(notes, Note{Kind: NoteDefaulted, Table: t.Name, Row: row, Column: ColAmount, Reason: err.Error()})
			amount = decimal.Zero
		}

		code := identity.CanonicalizeCode(t.Value(i, ColCustomerCode))
		name := identity.NormalizeName(t.Value(i, ColCustomerName))
		checks = append(checks, models.Check{
			CheckNumber:  number,
			CustomerKey:  identity.CustomerKey(code, name),
			CustomerCode: code,
			CustomerName: name,
			Amount:       amount,
			Status:       t.Value(i, ColStatus),
		})
	}

	pr.log.Debug().
		Str("table", t.Name).
		Int("rows", t.Len()).
		Int("checks", len(checks)).
		Msg("Check registry parsed")

	return checks, notes, nil
}

// ResolvePayments reads the payment table and attributes each payment.
// Unresolved payments are left out of the returned set and reported as notes.
func (pr *PaymentResolver) ResolvePayments(t *tables.Table, registry *CheckRegistry) ([]models.Payment, Notes, error) {
	const op = "ResolvePayments"

	if t.IsEmpty() {
		return nil, nil, nil
	}
	for _, col := range []string{ColPaymentDate, ColAmount, ColSourceType} {
		if !t.Has(col) {
			return nil, nil, fmt.Errorf("%s: %w", op, missingColumn(t.Name, col))
		}
	}

	var payments []models.Payment
	var notes Notes
	for i := 0; i < t.Len(); i++ {
		row := i + 2

		p := models.Payment{
			PaymentID:   t.Value(i, ColPaymentID),
			SourceType:  ParseSourceType(t.Value(i, ColSourceType)),
			Description: t.Value(i, ColDescription),
		}
		if p.PaymentID == "" {
			p.PaymentID = fmt.Sprintf("ROW-%d", row)
		}

		if d, ok := calendar.ParseFlexibleDate(t.Value(i, ColPaymentDate)); ok {
			p.PaymentDate = d
		} else {
			notes = append(notes, Note{Kind: NoteDefaulted, Table: t.Name, Row: row, Column: ColPaymentDate, Reason: "unparsable date, payment is never commission-eligible"})
		}

		amount, err := tables.ParseAmount(t.Value(i, ColAmount))
		if err != nil {
			notes = append(notes, Note{Kind: NoteDefaulted, Table: t.Name, Row: row, Column: ColAmount, Reason: err.Error()})
			amount = decimal.Zero
		}
		p.Amount = amount

		key, number, reason, ok := ResolveCustomer(p, t.Value(i, ColCustomerCode), registry)
		p.CheckNumber = number
		if !ok {
			notes = append(notes, Note{Kind: NoteUnresolved, Table: t.Name, Row: row, Column: ColSourceType, Reason: reason})
			pr.log.Debug().Str("payment_id", p.PaymentID).Str("reason", reason).Msg("Payment unresolved, dropped")
			continue
		}
		p.ResolvedCustomerKey = key

		if !p.Amount.IsPositive() {
			notes = append(notes, Note{Kind: NoteExcluded, Table: t.Name, Row: row, Column: ColAmount, Reason: "non-positive amount"})
			continue
		}

		payments = append(payments, p)
	}

	pr.log.Info().
		Str("table", t.Name).
		Int("rows", t.Len()).
		Int("resolved", len(payments)).
		Int("unresolved", notes.Count(NoteUnresolved)).
		Msg("Payments resolved")

	return payments, notes, nil
}

package policy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"salesrecon/internal/identity"
	"salesrecon/internal/logger"
	"salesrecon/internal/tables"
)

var hundred = decimal.NewFromInt(100)

// Document is the on-disk shape of a policy file. Percent is entered the way
// people write it, 2 meaning 2%.
type Document struct {
	Groups           []GroupEntry `yaml:"groups" validate:"dive"`
	AllowedMarketers []string     `yaml:"allowed_marketers"`
	BannedProducts   []string     `yaml:"banned_products"`
	BannedCustomers  []string     `yaml:"banned_customers"`
	CashMarkers      []string     `yaml:"cash_markers"`
}

// GroupEntry is one product group line of a policy document.
type GroupEntry struct {
	Key     string  `yaml:"key" validate:"required"`
	Name    string  `yaml:"name"`
	Percent float64 `yaml:"percent" validate:"gte=0,lte=100"`
	DueDays *int    `yaml:"due_days" validate:"omitempty,gte=0,lte=3650"`
	IsCash  *bool   `yaml:"is_cash"`
}

// Loader reads and validates policy documents.
type Loader struct {
	validate *validator.Validate
	log      zerolog.Logger
}

// NewLoader creates a policy loader.
func NewLoader() *Loader {
	return &Loader{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logger.WithComponent("policy"),
	}
}

// LoadFile reads a YAML policy (.yaml, .yml) or a group table (.xlsx, .xls,
// .csv). A missing file yields an empty policy.
func (l *Loader) LoadFile(path string) (*Policy, error) {
	const op = "LoadFile"

	if path == "" {
		return New(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		l.log.Warn().Str("path", path).Msg("Policy file not found, using defaults (0% commission, heuristic terms)")
		return New(), nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read %s: %w", op, path, err)
		}
		return l.Parse(data)
	case ".xlsx", ".xlsm", ".xls", ".csv":
		t, err := tables.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		groups, err := l.GroupsFromTable(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p := New()
		p.Groups = groups
		return p, nil
	default:
		return nil, fmt.Errorf("%s: %s: %w", op, path, ErrUnsupportedPolicyFormat)
	}
}

// Parse decodes and validates a YAML policy document.
func (l *Loader) Parse(data []byte) (*Policy, error) {
	const op = "Parse"

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: failed to decode policy: %w", op, err)
	}
	p, err := l.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Build validates a document and converts it into the typed policy.
func (l *Loader) Build(doc Document) (*Policy, error) {
	if err := l.validate.Struct(doc); err != nil {
		return nil, toPolicyError(err)
	}

	p := New()
	for _, entry := range doc.Groups {
		g, err := entry.group()
		if err != nil {
			return nil, err
		}
		if _, dup := p.Groups[g.Key]; dup {
			l.log.Warn().Str("group", g.Key).Msg("Duplicate group in policy, last entry wins")
		}
		p.Groups[g.Key] = g
	}

	if len(doc.AllowedMarketers) > 0 {
		p.AllowedMarketers = identity.NewNameSet(doc.AllowedMarketers)
	}
	p.BannedProducts = identity.NewCodeSet(doc.BannedProducts)
	p.BannedCustomerCodes = identity.NewCodeSet(doc.BannedCustomers)
	p.BannedCustomerNames = identity.NewNameSet(doc.BannedCustomers)
	if len(doc.CashMarkers) > 0 {
		p.CashMarkers = doc.CashMarkers
	}

	l.log.Info().
		Int("groups", len(p.Groups)).
		Int("allowed_marketers", len(doc.AllowedMarketers)).
		Int("banned_products", len(p.BannedProducts)).
		Int("banned_customers", len(doc.BannedCustomers)).
		Msg("Policy loaded")

	return p, nil
}

func (e GroupEntry) group() (Group, error) {
	key := identity.CanonicalizeCode(e.Key)
	if key == "" {
		return Group{}, &PolicyError{Field: "groups.key", Value: e.Key, Message: "must not be blank"}
	}
	g := Group{
		Key:     key,
		Name:    e.Name,
		Percent: decimal.NewFromFloat(e.Percent).Div(hundred),
		IsCash:  e.IsCash,
	}
	if g.Name == "" {
		g.Name = e.Key
	}
	if e.DueDays != nil {
		g.DueDays = *e.DueDays
	}
	return g, nil
}

// GroupsFromTable reads a group table with columns GroupKey, GroupName,
// Percent, DueDays and IsCash. Percent is a human percent.
func (l *Loader) GroupsFromTable(t *tables.Table) (GroupConfig, error) {
	const op = "GroupsFromTable"

	if t.IsEmpty() {
		return GroupConfig{}, nil
	}
	if !t.HasAny("GroupKey", "ProductGroup", "ProductCode") {
		return nil, &PolicyError{Field: "GroupKey", Value: t.Name, Message: "column is missing"}
	}

	var doc Document
	for i := 0; i < t.Len(); i++ {
		entry := GroupEntry{
			Key:  t.First(i, "GroupKey", "ProductGroup", "ProductCode"),
			Name: t.First(i, "GroupName", "Name"),
		}
		if entry.Key == "" {
			continue
		}
		if raw := t.Value(i, "Percent"); raw != "" {
			pct, err := tables.ParseAmount(strings.TrimSuffix(raw, "%"))
			if err != nil {
				return nil, &PolicyError{Field: "Percent", Value: raw, Message: fmt.Sprintf("row %d is not a number", i+2)}
			}
			entry.Percent = pct.InexactFloat64()
		}
		if n, ok := tables.ParseInt(t.Value(i, "DueDays")); ok {
			entry.DueDays = &n
		}
		if b, ok := tables.ParseBool(t.Value(i, "IsCash")); ok {
			entry.IsCash = &b
		}
		doc.Groups = append(doc.Groups, entry)
	}

	p, err := l.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p.Groups, nil
}

func toPolicyError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &PolicyError{
			Field:   fe.Namespace(),
			Value:   fe.Value(),
			Message: fmt.Sprintf("failed '%s' check", fe.Tag()),
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
}

// Package policy holds the commission and settlement policy supplied by the
// business: per product-group commission percent, due days and cash flag,
// plus the marketer allow-list and the customer/product blacklists.
//
// Policy documents are validated once when loaded; the engine only reads the
// typed result.
package policy

import (
	"strings"

	"github.com/shopspring/decimal"
	"salesrecon/internal/identity"
)

const (
	// DefaultCashDueDays is the fallback term for groups whose label looks cash.
	DefaultCashDueDays = 7
	// DefaultNormalDueDays is the fallback term for every other group.
	DefaultNormalDueDays = 90
	// CashTermMaxDays is the longest term still treated as cash settlement.
	CashTermMaxDays = 7
)

// DefaultCashMarkers are the substrings that mark a group label as cash.
var DefaultCashMarkers = []string{"cash", "نقد"}

// Group is the typed policy of one product group.
type Group struct {
	Key     string          // Canonical product group key
	Name    string          // Display label, used by the cash-marker fallback
	Percent decimal.Decimal // Commission as a fraction, 0.02 for 2%
	DueDays int             // Payment term in days; 0 means not configured
	IsCash  *bool           // nil when the group does not say
}

// HasDueDays reports whether the group configures a positive term.
func (g Group) HasDueDays() bool {
	return g.DueDays > 0
}

// GroupConfig maps canonical product group keys to their policy.
type GroupConfig map[string]Group

// Lookup returns the group policy for a canonical key.
func (gc GroupConfig) Lookup(key string) (Group, bool) {
	if gc == nil || key == "" {
		return Group{}, false
	}
	g, ok := gc[key]
	return g, ok
}

// Policy is the full reconciliation policy for a run.
type Policy struct {
	Groups GroupConfig

	// AllowedMarketers is nil when no allow-list is configured.
	AllowedMarketers identity.Set

	BannedProducts      identity.Set
	BannedCustomerCodes identity.Set
	BannedCustomerNames identity.Set

	CashMarkers []string
}

// New returns an empty policy: no groups, no allow-list, no blacklists.
func New() *Policy {
	return &Policy{
		Groups:              GroupConfig{},
		BannedProducts:      identity.Set{},
		BannedCustomerCodes: identity.Set{},
		BannedCustomerNames: identity.Set{},
		CashMarkers:         DefaultCashMarkers,
	}
}

// MarketerAllowed reports whether invoices of the salesperson may be kept.
func (p *Policy) MarketerAllowed(normalizedName string) bool {
	if p == nil || p.AllowedMarketers == nil {
		return true
	}
	return p.AllowedMarketers.Has(identity.NameMatchKey(normalizedName))
}

// ProductBanned reports whether the canonical product group key is blacklisted.
func (p *Policy) ProductBanned(groupKey string) bool {
	return p != nil && p.BannedProducts.Has(groupKey)
}

// CustomerBanned reports whether the customer code or name is blacklisted.
func (p *Policy) CustomerBanned(code, name string) bool {
	if p == nil {
		return false
	}
	return p.BannedCustomerCodes.Has(identity.CanonicalizeCode(code)) ||
		p.BannedCustomerNames.Has(identity.NameMatchKey(name))
}

// LooksCash is the last-resort heuristic: a group label containing a cash
// marker settles as cash. It is policy, not correctness logic.
func (p *Policy) LooksCash(label string) bool {
	markers := DefaultCashMarkers
	if p != nil && len(p.CashMarkers) > 0 {
		markers = p.CashMarkers
	}
	l := strings.ToLower(identity.NormalizeName(label))
	if l == "" {
		return false
	}
	for _, m := range markers {
		if m != "" && strings.Contains(l, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// FallbackDueDays applies the cash-marker heuristic to pick a payment term.
func (p *Policy) FallbackDueDays(label string) int {
	if p.LooksCash(label) {
		return DefaultCashDueDays
	}
	return DefaultNormalDueDays
}

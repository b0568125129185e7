package reconciliation

import (
	"sort"

	"github.com/shopspring/decimal"
	"salesrecon/pkg/models"
)

// CommissionBySalesperson sums commission per salesperson. Salespeople with
// no invoices do not appear. Lines are sorted by name.
func CommissionBySalesperson(invoices []models.Invoice) []CommissionTotal {
	totals := make(map[string]*CommissionTotal)
	for _, inv := range invoices {
		t, ok := totals[inv.Salesperson]
		if !ok {
			t = &CommissionTotal{Salesperson: inv.Salesperson, Collected: decimal.Zero, Commission: decimal.Zero}
			totals[inv.Salesperson] = t
		}
		t.Invoices++
		t.Collected = t.Collected.Add(inv.PaidAmount)
		t.Commission = t.Commission.Add(inv.CommissionAmount)
	}

	out := make([]CommissionTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Salesperson < out[j].Salesperson
	})
	return out
}

// CustomerSummaries builds one line per customer that has invoices or
// resolved payments, sorted by customer key.
func CustomerSummaries(invoices []models.Invoice, payments []models.Payment, unapplied []Unapplied) []CustomerSummary {
	byKey := make(map[string]*CustomerSummary)
	get := func(key string) *CustomerSummary {
		s, ok := byKey[key]
		if !ok {
			s = &CustomerSummary{
				CustomerKey: key,
				Invoiced:    decimal.Zero,
				Paid:        decimal.Zero,
				Remaining:   decimal.Zero,
				Commission:  decimal.Zero,
				Received:    decimal.Zero,
				Unapplied:   decimal.Zero,
			}
			byKey[key] = s
		}
		return s
	}

	for _, inv := range invoices {
		s := get(inv.CustomerKey)
		if s.CustomerName == "" {
			s.CustomerName = inv.CustomerName
		}
		s.Invoiced = s.Invoiced.Add(inv.Amount)
		s.Paid = s.Paid.Add(inv.PaidAmount)
		s.Remaining = s.Remaining.Add(inv.Remaining)
		s.Commission = s.Commission.Add(inv.CommissionAmount)
	}
	for _, p := range payments {
		if !p.Participates() {
			continue
		}
		s := get(p.ResolvedCustomerKey)
		s.Received = s.Received.Add(p.Amount)
	}
	for _, u := range unapplied {
		s := get(u.CustomerKey)
		s.Unapplied = s.Unapplied.Add(u.Amount)
	}

	out := make([]CustomerSummary, 0, len(byKey))
	for _, s := range byKey {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CustomerKey < out[j].CustomerKey
	})
	return out
}

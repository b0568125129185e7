package reconciliation

import (
	"sort"

	"github.com/shopspring/decimal"
	"salesrecon/internal/calendar"
	"salesrecon/pkg/models"
)

// AllocationOutput is what Allocate produces, before aggregation.
type AllocationOutput struct {
	Invoices    []models.Invoice
	Allocations []Allocation
	Unapplied   []Unapplied
}

// Allocate applies payments to invoices customer by customer. Within a
// customer, cash invoices are settled before normal ones and older before
// newer; payments are applied oldest first. Commission accrues only on
// portions paid on or before the invoice due date.
//
// The inputs are not modified. The returned invoices are in SortInvoices
// order.
func Allocate(invoices []models.Invoice, payments []models.Payment) AllocationOutput {
	out := AllocationOutput{Invoices: make([]models.Invoice, len(invoices))}
	copy(out.Invoices, invoices)
	SortInvoices(out.Invoices)

	byCustomer := make(map[string][]*models.Invoice)
	for i := range out.Invoices {
		inv := &out.Invoices[i]
		byCustomer[inv.CustomerKey] = append(byCustomer[inv.CustomerKey], inv)
	}

	paymentsBy := make(map[string][]models.Payment)
	for _, p := range payments {
		if !p.Participates() {
			continue
		}
		paymentsBy[p.ResolvedCustomerKey] = append(paymentsBy[p.ResolvedCustomerKey], p)
	}

	customers := make([]string, 0, len(paymentsBy))
	for key := range paymentsBy {
		customers = append(customers, key)
	}
	sort.Strings(customers)

	for _, key := range customers {
		custPayments := paymentsBy[key]
		SortPayments(custPayments)
		allocs, unapplied := allocateCustomer(byCustomer[key], custPayments)
		out.Allocations = append(out.Allocations, allocs...)
		out.Unapplied = append(out.Unapplied, unapplied...)
	}

	return out
}

// allocateCustomer walks one customer's payments over that customer's
// invoices, which must already be in allocation order.
func allocateCustomer(invoices []*models.Invoice, payments []models.Payment) ([]Allocation, []Unapplied) {
	var allocs []Allocation
	var unapplied []Unapplied

	next := 0 // first invoice that may still be open
	for _, p := range payments {
		left := p.Amount
		for next < len(invoices) && left.IsPositive() {
			inv := invoices[next]
			if !inv.IsOpen() {
				next++
				continue
			}

			applied := decimal.Min(left, inv.Remaining)
			inv.PaidAmount = inv.PaidAmount.Add(applied)
			inv.Remaining = inv.Remaining.Sub(applied)
			left = left.Sub(applied)

			timely := IsTimely(p, inv)
			commission := decimal.Zero
			if timely {
				commission = applied.Mul(inv.CommissionPercent)
				inv.CommissionAmount = inv.CommissionAmount.Add(commission)
			}

			allocs = append(allocs, Allocation{
				PaymentID:       p.PaymentID,
				InvoiceID:       inv.InvoiceID,
				ProductGroupKey: inv.ProductGroupKey,
				CustomerKey:     inv.CustomerKey,
				PaymentDate:     p.PaymentDate,
				Amount:          applied,
				Timely:          timely,
				Commission:      commission,
			})
		}

		if left.IsPositive() {
			unapplied = append(unapplied, Unapplied{
				PaymentID:   p.PaymentID,
				CustomerKey: p.ResolvedCustomerKey,
				Amount:      left,
			})
		}
	}

	return allocs, unapplied
}

// IsTimely reports whether a payment counts toward commission on the
// invoice: both dates are known and the payment is not after the due date.
func IsTimely(p models.Payment, inv *models.Invoice) bool {
	if !p.HasDate() || !inv.HasDueDate() {
		return false
	}
	return calendar.DaysBetween(p.PaymentDate, inv.DueDate) >= 0
}

// SortPayments orders payments oldest first. Payments without a date come
// first; ids and amounts break ties.
func SortPayments(payments []models.Payment) {
	sort.SliceStable(payments, func(i, j int) bool {
		a, b := payments[i], payments[j]
		if !a.PaymentDate.Equal(b.PaymentDate) {
			return a.PaymentDate.Before(b.PaymentDate)
		}
		if a.PaymentID != b.PaymentID {
			return a.PaymentID < b.PaymentID
		}
		return a.Amount.LessThan(b.Amount)
	})
}

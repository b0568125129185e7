package reconciliation

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"salesrecon/pkg/models"
)

var day0 = time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

func newInvoice(id, customer string, priority models.Priority, date time.Time, dueDays int, amount string) models.Invoice {
	a := decimal.RequireFromString(amount)
	return models.Invoice{
		InvoiceID:         id,
		CustomerKey:       customer,
		Salesperson:       "ali",
		InvoiceDate:       date,
		DueDate:           date.AddDate(0, 0, dueDays),
		Priority:          priority,
		CommissionPercent: decimal.RequireFromString("0.02"),
		Amount:            a,
		PaidAmount:        decimal.Zero,
		Remaining:         a,
		CommissionAmount:  decimal.Zero,
	}
}

func newPayment(id, customer string, date time.Time, amount string) models.Payment {
	return models.Payment{
		PaymentID:           id,
		PaymentDate:         date,
		Amount:              decimal.RequireFromString(amount),
		SourceType:          models.SourceCustomerAccount,
		ResolvedCustomerKey: customer,
	}
}

func scenarioInvoices() []models.Invoice {
	return []models.Invoice{
		newInvoice("INV2", "C1", models.PriorityNormal, day0, 90, "2000"),
		newInvoice("INV1", "C1", models.PriorityCash, day0, 7, "1000"),
	}
}

func TestAllocateScenarioA(t *testing.T) {
	out := Allocate(scenarioInvoices(), []models.Payment{newPayment("P1", "C1", day0.AddDate(0, 0, 3), "1500")})

	inv1 := findInvoice(t, out.Invoices, "INV1")
	assertDecimal(t, "0", inv1.Remaining)
	assertDecimal(t, "1000", inv1.PaidAmount)
	assertDecimal(t, "20", inv1.CommissionAmount)

	inv2 := findInvoice(t, out.Invoices, "INV2")
	assertDecimal(t, "500", inv2.PaidAmount)
	assertDecimal(t, "1500", inv2.Remaining)
	assertDecimal(t, "10", inv2.CommissionAmount)

	require.Len(t, out.Allocations, 2)
	assert.Equal(t, "INV1", out.Allocations[0].InvoiceID)
	assert.True(t, out.Allocations[0].Timely)
	assert.Empty(t, out.Unapplied)
}

func TestAllocateScenarioB(t *testing.T) {
	out := Allocate(scenarioInvoices(), []models.Payment{newPayment("P1", "C1", day0.AddDate(0, 0, 10), "1500")})

	inv1 := findInvoice(t, out.Invoices, "INV1")
	assertDecimal(t, "0", inv1.Remaining)
	assertDecimal(t, "0", inv1.CommissionAmount, "late payment settles principal only")

	inv2 := findInvoice(t, out.Invoices, "INV2")
	assertDecimal(t, "500", inv2.PaidAmount)
	assertDecimal(t, "10", inv2.CommissionAmount)

	require.Len(t, out.Allocations, 2)
	assert.False(t, out.Allocations[0].Timely)
	assertDecimal(t, "0", out.Allocations[0].Commission)
}

func TestAllocatePaymentOnDueDateIsTimely(t *testing.T) {
	out := Allocate(scenarioInvoices(), []models.Payment{newPayment("P1", "C1", day0.AddDate(0, 0, 7), "1000")})
	assertDecimal(t, "20", findInvoice(t, out.Invoices, "INV1").CommissionAmount)
}

func TestAllocateCashBeforeOlderNormal(t *testing.T) {
	invoices := []models.Invoice{
		newInvoice("OLD-NORMAL", "C1", models.PriorityNormal, day0, 90, "800"),
		newInvoice("NEW-CASH", "C1", models.PriorityCash, day0.AddDate(0, 1, 0), 7, "1000"),
	}
	out := Allocate(invoices, []models.Payment{newPayment("P1", "C1", day0.AddDate(0, 1, 1), "1000")})

	assertDecimal(t, "0", findInvoice(t, out.Invoices, "NEW-CASH").Remaining)
	assertDecimal(t, "0", findInvoice(t, out.Invoices, "OLD-NORMAL").PaidAmount)
}

func TestAllocateOldestFirstWithinTier(t *testing.T) {
	invoices := []models.Invoice{
		newInvoice("LATER", "C1", models.PriorityNormal, day0.AddDate(0, 0, 5), 90, "100"),
		newInvoice("EARLIER", "C1", models.PriorityNormal, day0, 90, "100"),
	}
	out := Allocate(invoices, []models.Payment{newPayment("P1", "C1", day0.AddDate(0, 0, 6), "150")})

	assertDecimal(t, "0", findInvoice(t, out.Invoices, "EARLIER").Remaining)
	assertDecimal(t, "50", findInvoice(t, out.Invoices, "LATER").Remaining)
}

func TestAllocatePaymentsInDateOrder(t *testing.T) {
	invoices := []models.Invoice{newInvoice("I1", "C1", models.PriorityNormal, day0, 5, "100")}
	payments := []models.Payment{
		newPayment("LATE", "C1", day0.AddDate(0, 0, 30), "100"),
		newPayment("EARLY", "C1", day0.AddDate(0, 0, 1), "100"),
	}
	out := Allocate(invoices, payments)

	inv := findInvoice(t, out.Invoices, "I1")
	assertDecimal(t, "2", inv.CommissionAmount, "the early payment settles the invoice")
	require.Len(t, out.Unapplied, 1)
	assert.Equal(t, "LATE", out.Unapplied[0].PaymentID)
	assertDecimal(t, "100", out.Unapplied[0].Amount)
}

func TestAllocateOverpaymentLeftUnapplied(t *testing.T) {
	out := Allocate(scenarioInvoices(), []models.Payment{newPayment("P1", "C1", day0, "5000")})

	for _, inv := range out.Invoices {
		assertDecimal(t, "0", inv.Remaining)
	}
	require.Len(t, out.Unapplied, 1)
	assertDecimal(t, "2000", out.Unapplied[0].Amount)
	assert.Equal(t, "C1", out.Unapplied[0].CustomerKey)
}

func TestAllocateCustomersAreIndependent(t *testing.T) {
	invoices := []models.Invoice{
		newInvoice("A1", "A", models.PriorityNormal, day0, 90, "100"),
		newInvoice("B1", "B", models.PriorityNormal, day0, 90, "100"),
	}
	out := Allocate(invoices, []models.Payment{
		newPayment("PA", "A", day0, "60"),
		newPayment("PX", "NOBODY", day0, "60"),
	})

	assertDecimal(t, "40", findInvoice(t, out.Invoices, "A1").Remaining)
	assertDecimal(t, "100", findInvoice(t, out.Invoices, "B1").Remaining, "no payments, unchanged")
	require.Len(t, out.Unapplied, 1)
	assert.Equal(t, "PX", out.Unapplied[0].PaymentID)
}

func TestAllocateUndatedPaymentNeverEarnsCommission(t *testing.T) {
	invoices := scenarioInvoices()
	invoices[1].DueDate = time.Time{}

	out := Allocate(invoices, []models.Payment{
		newPayment("UNDATED", "C1", time.Time{}, "100"),
		newPayment("DATED", "C1", day0, "1000"),
	})

	require.NotEmpty(t, out.Allocations)
	assert.Equal(t, "UNDATED", out.Allocations[0].PaymentID, "undated payments sort first")
	assert.False(t, out.Allocations[0].Timely)

	inv1 := findInvoice(t, out.Invoices, "INV1")
	assertDecimal(t, "0", inv1.CommissionAmount, "no due date, nothing is timely")
}

func TestAllocateIgnoresUnresolvedAndNonPositive(t *testing.T) {
	unresolved := newPayment("U", "", day0, "100")
	zero := newPayment("Z", "C1", day0, "0")

	out := Allocate(scenarioInvoices(), []models.Payment{unresolved, zero})
	assert.Empty(t, out.Allocations)
	assert.Empty(t, out.Unapplied)
}

func TestAllocateDoesNotModifyInputs(t *testing.T) {
	invoices := scenarioInvoices()
	payments := []models.Payment{
		newPayment("P2", "C1", day0.AddDate(0, 0, 2), "100"),
		newPayment("P1", "C1", day0, "100"),
	}

	Allocate(invoices, payments)

	assert.Equal(t, "INV2", invoices[0].InvoiceID)
	assertDecimal(t, "2000", invoices[0].Remaining)
	assert.Equal(t, "P2", payments[0].PaymentID)
}

func TestAllocateConservationAndDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	var invoices []models.Invoice
	var payments []models.Payment
	for c := 0; c < 6; c++ {
		customer := fmt.Sprintf("C%d", c)
		for i := 0; i < 5; i++ {
			priority := models.PriorityNormal
			if rng.Intn(3) == 0 {
				priority = models.PriorityCash
			}
			invoices = append(invoices, newInvoice(
				fmt.Sprintf("%s-I%d", customer, i), customer, priority,
				day0.AddDate(0, 0, rng.Intn(20)), 7+rng.Intn(60),
				fmt.Sprintf("%d.%02d", 100+rng.Intn(900), rng.Intn(100)),
			))
		}
		for p := 0; p < 4; p++ {
			payments = append(payments, newPayment(
				fmt.Sprintf("%s-P%d", customer, p), customer,
				day0.AddDate(0, 0, rng.Intn(90)),
				fmt.Sprintf("%d.%02d", 50+rng.Intn(1200), rng.Intn(100)),
			))
		}
	}

	want := Allocate(invoices, payments)

	for _, inv := range want.Invoices {
		assert.True(t, inv.IsBalanced(), "PaidAmount + Remaining == Amount for %s", inv.InvoiceID)
		assert.False(t, inv.Remaining.IsNegative())
		assert.False(t, inv.PaidAmount.IsNegative())
	}

	received := decimal.Zero
	for _, p := range payments {
		received = received.Add(p.Amount)
	}
	applied := decimal.Zero
	for _, a := range want.Allocations {
		applied = applied.Add(a.Amount)
	}
	for _, u := range want.Unapplied {
		applied = applied.Add(u.Amount)
	}
	assertDecimal(t, received.String(), applied, "every payment unit is allocated or unapplied")

	for round := 0; round < 5; round++ {
		rng.Shuffle(len(invoices), func(i, j int) { invoices[i], invoices[j] = invoices[j], invoices[i] })
		rng.Shuffle(len(payments), func(i, j int) { payments[i], payments[j] = payments[j], payments[i] })

		got := Allocate(invoices, payments)
		require.Equal(t, len(want.Invoices), len(got.Invoices))
		for i := range want.Invoices {
			assert.Equal(t, want.Invoices[i].InvoiceID, got.Invoices[i].InvoiceID)
			assert.Equal(t, want.Invoices[i].PaidAmount.String(), got.Invoices[i].PaidAmount.String())
			assert.Equal(t, want.Invoices[i].CommissionAmount.String(), got.Invoices[i].CommissionAmount.String())
		}
		assert.Equal(t, len(want.Allocations), len(got.Allocations))
	}
}

func TestSortPaymentsTieBreak(t *testing.T) {
	payments := []models.Payment{
		newPayment("B", "C1", day0, "1"),
		newPayment("A", "C1", day0, "2"),
		newPayment("A", "C1", day0, "1"),
	}
	SortPayments(payments)

	assert.Equal(t, "A", payments[0].PaymentID)
	assertDecimal(t, "1", payments[0].Amount)
	assert.Equal(t, "A", payments[1].PaymentID)
	assert.Equal(t, "B", payments[2].PaymentID)
}

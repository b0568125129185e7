package reconciliation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"salesrecon/pkg/models"
)

func TestExtractCheckNumber(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"chk token", "deposit CHK-6001 branch 4", "6001"},
		{"chk lower with hash", "chk#0042", "42"},
		{"check no", "Check No. 778899", "778899"},
		{"persian", "وصول چک شماره ۱۲۳۴", "1234"},
		{"none", "cash deposit", ""},
		{"short number after word", "check 12", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCheckNumber(tt.text))
		})
	}
}

func TestParseSourceType(t *testing.T) {
	assert.Equal(t, models.SourceCustomerAccount, ParseSourceType("CustomerAccount"))
	assert.Equal(t, models.SourceCustomerAccount, ParseSourceType("customer account"))
	assert.Equal(t, models.SourceCheck, ParseSourceType("Check"))
	assert.Equal(t, models.SourceCheck, ParseSourceType("چک"))
	assert.Equal(t, models.SourceUnknown, ParseSourceType("wire"))
}

func TestCheckRegistryLastWins(t *testing.T) {
	r := NewCheckRegistry([]models.Check{
		{CheckNumber: "6001", CustomerKey: "1"},
		{CheckNumber: "6001", CustomerKey: "2"},
		{CheckNumber: "", CustomerKey: "3"},
	})
	assert.Equal(t, 1, r.Len())

	c, ok := r.Lookup("06001")
	require.True(t, ok)
	assert.Equal(t, "2", c.CustomerKey)

	var nilRegistry *CheckRegistry
	_, ok = nilRegistry.Lookup("6001")
	assert.False(t, ok)
}

func TestCheckRegistryLinkOwners(t *testing.T) {
	index := NewCustomerIndex([]models.Invoice{
		{CustomerKey: "42", CustomerName: "Customer One"},
		{CustomerKey: "42", CustomerName: "Customer One"},
		{CustomerKey: "7", CustomerName: "Shared"},
		{CustomerKey: "8", CustomerName: "Shared"},
		{CustomerKey: "name:walkin", CustomerName: "Walk In"},
	})
	assert.Equal(t, "42", index.Resolve("name:customerone"))
	assert.Equal(t, "name:shared", index.Resolve("name:shared"), "ambiguous names stay unlinked")
	assert.Equal(t, "name:walkin", index.Resolve("name:walkin"))
	assert.Equal(t, "9", index.Resolve("9"))

	r := NewCheckRegistry([]models.Check{
		{CheckNumber: "6001", CustomerKey: "name:customerone"},
		{CheckNumber: "6002", CustomerKey: "name:shared"},
		{CheckNumber: "6003", CustomerKey: "9"},
	})
	assert.Equal(t, 1, r.LinkOwners(index))

	c, ok := r.Lookup("6001")
	require.True(t, ok)
	assert.Equal(t, "42", c.CustomerKey)
	c, _ = r.Lookup("6002")
	assert.Equal(t, "name:shared", c.CustomerKey)
}

func TestResolveCustomer(t *testing.T) {
	registry := NewCheckRegistry([]models.Check{{CheckNumber: "6001", CustomerKey: "42"}})

	t.Run("customer account uses own code", func(t *testing.T) {
		key, _, _, ok := ResolveCustomer(models.Payment{SourceType: models.SourceCustomerAccount}, "0042.0", registry)
		require.True(t, ok)
		assert.Equal(t, "42", key)
	})

	t.Run("customer account without code", func(t *testing.T) {
		_, _, reason, ok := ResolveCustomer(models.Payment{SourceType: models.SourceCustomerAccount}, "", registry)
		assert.False(t, ok)
		assert.NotEmpty(t, reason)
	})

	t.Run("check resolves through registry", func(t *testing.T) {
		p := models.Payment{SourceType: models.SourceCheck, Description: "deposit CHK-6001"}
		key, number, _, ok := ResolveCustomer(p, "", registry)
		require.True(t, ok)
		assert.Equal(t, "42", key)
		assert.Equal(t, "6001", number)
		assert.Empty(t, p.ResolvedCustomerKey, "input must not be modified")
	})

	t.Run("check not in registry", func(t *testing.T) {
		p := models.Payment{SourceType: models.SourceCheck, Description: "CHK-9999"}
		_, number, _, ok := ResolveCustomer(p, "42", registry)
		assert.False(t, ok)
		assert.Equal(t, "9999", number)
	})

	t.Run("unknown source", func(t *testing.T) {
		_, _, _, ok := ResolveCustomer(models.Payment{SourceType: models.SourceUnknown}, "42", registry)
		assert.False(t, ok)
	})
}

func TestResolvePaymentsScenarioC(t *testing.T) {
	pr := NewPaymentResolver()

	checks, notes, err := pr.ParseChecks(checkTable(
		[]string{"6001", "42", "Customer 42", "1500", "in transit"},
	))
	require.NoError(t, err)
	assert.Empty(t, notes)
	require.Len(t, checks, 1)

	payments, notes, err := pr.ResolvePayments(paymentTable(
		[]string{"P1", "1403/01/04", "1500", "Check", "", "deposit CHK-6001"},
		[]string{"P2", "1403/01/04", "700", "Check", "", "no token here"},
		[]string{"P3", "1403/01/05", "300", "CustomerAccount", "7", ""},
		[]string{"", "1403/01/06", "100", "Wire", "7", ""},
	), NewCheckRegistry(checks))
	require.NoError(t, err)

	require.Len(t, payments, 2)
	assert.Equal(t, "P1", payments[0].PaymentID)
	assert.Equal(t, "42", payments[0].ResolvedCustomerKey)
	assert.Equal(t, "6001", payments[0].CheckNumber)
	assert.Equal(t, "7", payments[1].ResolvedCustomerKey)

	assert.Equal(t, 2, notes.Count(NoteUnresolved))
	assert.Len(t, notes.ForRow("payments", 5), 1)
}

func TestResolvePaymentsRecoverableCells(t *testing.T) {
	payments, notes, err := NewPaymentResolver().ResolvePayments(paymentTable(
		[]string{"P1", "not a date", "250", "CustomerAccount", "7", ""},
		[]string{"P2", "2024-03-20", "abc", "CustomerAccount", "7", ""},
	), nil)
	require.NoError(t, err)

	require.Len(t, payments, 1)
	assert.False(t, payments[0].HasDate())
	assertDecimal(t, "250", payments[0].Amount)

	assert.Equal(t, 2, notes.Count(NoteDefaulted))
	assert.Equal(t, 1, notes.Count(NoteExcluded))
}

func TestResolvePaymentsSchema(t *testing.T) {
	bad := tablesWithout(paymentTable([]string{"P1", "1403/01/01", "1", "Check", "", ""}), "SourceType")

	_, _, err := NewPaymentResolver().ResolvePayments(bad, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, ColSourceType, schemaErr.Column)

	payments, notes, err := NewPaymentResolver().ResolvePayments(paymentTable(), nil)
	require.NoError(t, err, "an empty table never fails")
	assert.Empty(t, payments)
	assert.Empty(t, notes)
}

func TestParseChecksSchema(t *testing.T) {
	_, _, err := NewPaymentResolver().ParseChecks(tablesWithout(checkTable([]string{"1", "2", "x", "1", ""}), "CustomerCode", "CustomerName"))
	assert.True(t, errors.Is(err, ErrMissingColumn))

	checks, _, err := NewPaymentResolver().ParseChecks(nil)
	require.NoError(t, err)
	assert.Empty(t, checks)
}

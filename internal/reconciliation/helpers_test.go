package reconciliation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"salesrecon/internal/logger"
	"salesrecon/internal/policy"
	"salesrecon/internal/tables"
)

func init() {
	logger.Silence()
}

var (
	invoiceColumns = []string{"InvoiceID", "InvoiceDate", "CustomerCode", "CustomerName", "ProductGroup", "Amount", "Salesperson"}
	paymentColumns = []string{"PaymentID", "PaymentDate", "Amount", "SourceType", "CustomerCode", "Description"}
	checkColumns   = []string{"CheckNumber", "CustomerCode", "CustomerName", "Amount", "Status"}
)

func boolPtr(b bool) *bool { return &b }

// testPolicy has a cash group "C" (7 days) and a normal group "N" (90 days),
// both paying 2% commission.
func testPolicy() *policy.Policy {
	p := policy.New()
	p.Groups = policy.GroupConfig{
		"C": {Key: "C", Name: "Cash sales", Percent: decimal.RequireFromString("0.02"), DueDays: 7, IsCash: boolPtr(true)},
		"N": {Key: "N", Name: "Normal sales", Percent: decimal.RequireFromString("0.02"), DueDays: 90, IsCash: boolPtr(false)},
	}
	return p
}

func invoiceTable(rows ...[]string) *tables.Table {
	return tables.New("invoices", invoiceColumns, rows)
}

func paymentTable(rows ...[]string) *tables.Table {
	return tables.New("payments", paymentColumns, rows)
}

func checkTable(rows ...[]string) *tables.Table {
	return tables.New("checks", checkColumns, rows)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got),
		append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

// tablesWithout rebuilds a table with the named columns removed.
func tablesWithout(t *tables.Table, drop ...string) *tables.Table {
	skip := make(map[string]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}
	var cols []string
	var keep []int
	for i, c := range t.Columns {
		if skip[c] {
			continue
		}
		cols = append(cols, c)
		keep = append(keep, i)
	}
	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		for _, i := range keep {
			rows[r] = append(rows[r], row[i])
		}
	}
	return tables.New(t.Name, cols, rows)
}

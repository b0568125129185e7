package tables

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	tbl, err := FromRows("invoices", [][]string{
		{"", ""},
		{"Invoice ID", "customer_code", "Amount"},
		{"INV1", "42"},
		{"  ", ""},
		{"INV2", "43", " 1,000 "},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.Has("InvoiceID"))
	assert.True(t, tbl.Has("CustomerCode"))
	assert.False(t, tbl.Has("DueDate"))
	assert.True(t, tbl.HasAny("ProductCode", "Amount"))

	assert.Equal(t, "INV1", tbl.Value(0, "InvoiceID"))
	assert.Equal(t, "", tbl.Value(0, "Amount"), "short rows read as padded")
	assert.Equal(t, "1,000", tbl.Value(1, "Amount"))
	assert.Equal(t, "", tbl.Value(5, "Amount"))
	assert.Equal(t, "43", tbl.First(1, "Missing", "CustomerCode"))
}

func TestFromRowsWithoutHeader(t *testing.T) {
	_, err := FromRows("empty", [][]string{{""}, {" "}})
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestFromValues(t *testing.T) {
	tbl, err := FromValues("Payments", [][]interface{}{
		{"PaymentID", "Amount"},
		{"P1", 1500.0},
		{"P2", nil},
	})
	require.NoError(t, err)
	assert.Equal(t, "1500", tbl.Value(0, "Amount"))
	assert.Equal(t, "", tbl.Value(1, "Amount"))
}

func TestReadCSV(t *testing.T) {
	data := "\xef\xbb\xbfCheckNumber,CustomerCode,Amount,Status\n006001,42,\"3,000\",in transit\n"
	tbl, err := ReadCSV("checks", strings.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "006001", tbl.Value(0, "CheckNumber"))
	assert.Equal(t, "3,000", tbl.Value(0, "Amount"))
}

func TestLoadFileRejectsUnknownFormat(t *testing.T) {
	_, err := LoadFile("data.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteAndReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.xlsx")

	err := WriteXLSX(path,
		Sheet{Name: "Balances", Header: []string{"CustomerName", "Balance"}, Rows: [][]any{{"Ali", 7000.0}}},
		Sheet{Name: "Checks", Header: []string{"CheckNumber"}, Rows: [][]any{{"6001"}}},
	)
	require.NoError(t, err)

	balances, err := ReadXLSXSheet(path, "Balances")
	require.NoError(t, err)
	require.Equal(t, 1, balances.Len())
	assert.Equal(t, "Ali", balances.Value(0, "CustomerName"))
	assert.Equal(t, "7000", balances.Value(0, "Balance"))

	missing, err := ReadXLSXSheet(path, "Nope")
	require.NoError(t, err)
	assert.True(t, missing.IsEmpty())

	first, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, first.Has("Balance"))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "0", false},
		{"1,500", "1500", false},
		{"۱۲٬۰۰۰", "12000", false},
		{"-250.5", "-250.5", false},
		{"(1,000)", "-1000", false},
		{"2,000 ریال", "2000", false},
		{"12.5٫", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseIntAndBool(t *testing.T) {
	n, ok := ParseInt("30.0")
	assert.True(t, ok)
	assert.Equal(t, 30, n)

	_, ok = ParseInt("soon")
	assert.False(t, ok)

	v, ok := ParseBool("Yes")
	assert.True(t, ok)
	assert.True(t, v)

	_, ok = ParseBool("")
	assert.False(t, ok)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"LEDGER_PATH", "POLICY_PATH", "REPORT_DIR", "GOOGLE_SHEET_URL", "LOG_FORMAT", "LOG_OUTPUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "data/ledger.xlsx", cfg.LedgerPath)
	assert.Equal(t, "policy.yaml", cfg.PolicyPath)
	assert.Equal(t, "reports", cfg.ReportDir)
	assert.Equal(t, "Invoices", cfg.InvoiceSheet)
	assert.Empty(t, cfg.GoogleSheetURL)

	lc := cfg.GetLoggerConfig()
	assert.Equal(t, "console", lc.Format)
	assert.Equal(t, "stderr", lc.Output)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"ledger not xlsx", "LEDGER_PATH", "ledger.csv"},
		{"bad sheet url", "GOOGLE_SHEET_URL", "https://example.com/x"},
		{"bad log format", "LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEDGER_PATH", "/srv/ledger.XLSX")
	t.Setenv("GOOGLE_SHEET_URL", "https://docs.google.com/spreadsheets/d/abc/edit")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/ledger.XLSX", cfg.LedgerPath)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc/edit", cfg.GoogleSheetURL)
}

package config

import (
	"fmt"
	"os"
	"strings"

	"salesrecon/internal/logger"
)

type Config struct {
	// Balance ledger workbook
	LedgerPath string

	// Commission and settlement policy (YAML)
	PolicyPath string

	// Directory for run reports
	ReportDir string

	// Optional: Google Sheets source/report spreadsheet
	GoogleSheetURL string

	// Optional: sheet names inside the Google spreadsheet
	InvoiceSheet string
	PaymentSheet string
	CheckSheet   string
	GroupSheet   string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		LedgerPath:     getEnv("LEDGER_PATH", "data/ledger.xlsx"),
		PolicyPath:     getEnv("POLICY_PATH", "policy.yaml"),
		ReportDir:      getEnv("REPORT_DIR", "reports"),
		GoogleSheetURL: getEnv("GOOGLE_SHEET_URL", ""),
		InvoiceSheet:   getEnv("INVOICE_SHEET", "Invoices"),
		PaymentSheet:   getEnv("PAYMENT_SHEET", "Payments"),
		CheckSheet:     getEnv("CHECK_SHEET", "Checks"),
		GroupSheet:     getEnv("GROUP_SHEET", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:  getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:      getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.LedgerPath == "" {
		return fmt.Errorf("LEDGER_PATH is required")
	}
	if !strings.HasSuffix(strings.ToLower(c.LedgerPath), ".xlsx") {
		return fmt.Errorf("LEDGER_PATH must point to an .xlsx file, got %s", c.LedgerPath)
	}
	if c.GoogleSheetURL != "" && !strings.Contains(c.GoogleSheetURL, "/spreadsheets/d/") {
		return fmt.Errorf("GOOGLE_SHEET_URL is not a Google Sheets URL")
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %s", c.LogFormat)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

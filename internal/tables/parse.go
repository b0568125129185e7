package tables

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var amountCleaner = strings.NewReplacer(
	",", "", "٬", "", "'", "", " ", "", "\u00a0", "",
	"٫", ".",
	"ریال", "", "تومان", "", "IRR", "", "Rials", "", "Rial", "",
)

// ParseAmount parses a monetary cell. Thousands separators, Persian digits,
// currency words, a leading minus and accounting parentheses are understood.
// An empty cell is zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(foldDigits(s))
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, nil
	}

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
	}
	cleaned = amountCleaner.Replace(cleaned)
	if strings.HasPrefix(cleaned, "-") {
		negative = !negative
		cleaned = strings.TrimPrefix(cleaned, "-")
	}
	cleaned = strings.TrimSuffix(cleaned, "-")

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse amount: %s (cleaned: %s)", s, cleaned)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// ParseInt parses an integer cell such as a due-days count. "30.0" is 30.
func ParseInt(s string) (int, bool) {
	s = strings.TrimSpace(foldDigits(s))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil || !d.IsInteger() {
		return 0, false
	}
	return int(d.IntPart()), true
}

// ParseBool understands the usual spreadsheet spellings of yes and no.
func ParseBool(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(foldDigits(s))) {
	case "1", "true", "yes", "y", "x", "بله", "نقد", "نقدی":
		return true, true
	case "0", "false", "no", "n", "خیر":
		return false, true
	}
	return false, false
}

func foldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		}
		return r
	}, s)
}

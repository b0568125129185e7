// Package identity canonicalizes customer codes, product codes and Persian
// customer names into stable keys used for matching across source tables.
//
// All functions are pure and idempotent: feeding a normalized value back in
// returns it unchanged.
package identity

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// NamePrefix marks customer keys derived from a name rather than a code.
const NamePrefix = "name:"

var digitFolder = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

var letterFolder = strings.NewReplacer(
	"ي", "ی", "ى", "ی", "ئ", "ی",
	"ك", "ک",
	"ة", "ه", "ۀ", "ه",
	"أ", "ا", "إ", "ا", "ٱ", "ا",
	"ؤ", "و",
	"\u0640", "",
)

var spaceFolder = strings.NewReplacer(
	"\u200c", " ", "\u200b", " ", "\u200d", " ", "\ufeff", " ",
	"\u00a0", " ", "\u202f", " ", "\u2007", " ",
)

var parenSpacer = strings.NewReplacer("(", " ( ", ")", " ) ")

var numericCode = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

// thousands separators accepted in numeric codes
var separatorStripper = strings.NewReplacer(",", "", "٬", "", "'", "", " ", "")

// CanonicalizeCode returns the canonical form of a customer, product or check
// code. Numeric values (including "1,234" and "42.0") collapse to their
// decimal integer string; other values are trimmed. Empty or missing input
// returns "".
func CanonicalizeCode(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return canonicalizeCodeString(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case float64:
		return canonicalizeFloat(v)
	case float32:
		return canonicalizeFloat(float64(v))
	case decimal.Decimal:
		return canonicalizeCodeString(v.String())
	case fmt.Stringer:
		return canonicalizeCodeString(v.String())
	default:
		return canonicalizeCodeString(fmt.Sprintf("%v", v))
	}
}

func canonicalizeFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e18 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func canonicalizeCodeString(s string) string {
	s = strings.TrimSpace(digitFolder.Replace(s))
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "none") {
		return ""
	}

	candidate := separatorStripper.Replace(s)
	if !numericCode.MatchString(candidate) {
		return s
	}
	if d, err := decimal.NewFromString(candidate); err == nil {
		if d.IsInteger() {
			return d.Truncate(0).String()
		}
		return d.String()
	}
	return s
}

// NormalizeName unifies Arabic/Persian letter variants, turns zero-width and
// non-breaking spaces into ordinary spaces, pads parentheses so "X(Y)" and
// "X (Y)" agree, collapses runs of whitespace and trims. Empty input and the
// literal "nan" give "".
func NormalizeName(value any) string {
	var s string
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		s = v
	default:
		s = fmt.Sprintf("%v", v)
	}

	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return ""
	}

	s = norm.NFKC.String(s)
	s = spaceFolder.Replace(s)
	s = letterFolder.Replace(s)
	s = digitFolder.Replace(s)
	s = stripDiacritics(s)
	s = parenSpacer.Replace(s)

	return strings.Join(strings.Fields(s), " ")
}

// stripDiacritics drops Arabic harakat, which vary between data entry clerks.
func stripDiacritics(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '\u064b' && r <= '\u0652' {
			return -1
		}
		return r
	}, s)
}

// NameMatchKey is NormalizeName with every whitespace removed and Latin
// letters lowered, for matching where intra-name spacing must not matter.
func NameMatchKey(value any) string {
	n := NormalizeName(value)
	if n == "" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, n)
}

// CustomerKey picks the canonical key for a customer: the canonical code when
// one is present, otherwise a name-derived key. Returns "" when neither is
// usable.
func CustomerKey(code, name any) string {
	if c := CanonicalizeCode(code); c != "" {
		return c
	}
	if n := NameMatchKey(name); n != "" {
		return NamePrefix + n
	}
	return ""
}

// IsNameKey reports whether key was derived from a customer name.
func IsNameKey(key string) bool {
	return strings.HasPrefix(key, NamePrefix)
}

// Set is a membership set of canonical keys.
type Set map[string]struct{}

// NewCodeSet builds a set of canonical codes, skipping empty values.
func NewCodeSet(values []string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		if c := CanonicalizeCode(v); c != "" {
			s[c] = struct{}{}
		}
	}
	return s
}

// NewNameSet builds a set of name match keys, skipping empty values.
func NewNameSet(values []string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		if k := NameMatchKey(v); k != "" {
			s[k] = struct{}{}
		}
	}
	return s
}

// Has reports membership. A nil or empty key is never a member.
func (s Set) Has(key string) bool {
	if key == "" {
		return false
	}
	_, ok := s[key]
	return ok
}

// FoldDigits rewrites Persian and Arabic-Indic digits as ASCII digits.
func FoldDigits(s string) string {
	return digitFolder.Replace(s)
}

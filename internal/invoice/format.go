package invoice

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every amount on the invoice.
const CurrencySymbol = "₹"

// FormatAmount renders d with two decimals and comma thousands separators,
// e.g. 1500 -> "1,500.00".
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	b.Grow(len(whole) + len(whole)/3 + 4)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

// FormatCurrency renders d as a rupee amount, e.g. "₹1,300.00".
func FormatCurrency(d decimal.Decimal) string {
	return CurrencySymbol + FormatAmount(d)
}

// SanitizeName turns a patient name into a filename segment: trimmed,
// whitespace replaced by underscores, anything outside [A-Za-z0-9_] dropped,
// lower-cased.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case r == '_', r >= '0' && r <= '9', r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// BaseFilename joins prefix, sanitized patient name and the compact invoice
// date with underscores.
func BaseFilename(prefix, patientName string, date Date) string {
	return fmt.Sprintf("%s_%s_%s", prefix, SanitizeName(patientName), date.Compact())
}

// Filename is BaseFilename plus a format extension such as "html" or "pdf".
func Filename(prefix, patientName string, date Date, ext string) string {
	return BaseFilename(prefix, patientName, date) + "." + strings.TrimPrefix(ext, ".")
}

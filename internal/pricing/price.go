// Package pricing normalizes scraped price text into decimal amounts.
package pricing

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// amountPattern accepts an optional sign followed by digit groups joined by
// single '.' or ',' separators.
var amountPattern = regexp.MustCompile(`^-?\d+(?:[.,]\d+)*$`)

// groupSeparators are removed from inside the amount.
var groupSeparators = strings.NewReplacer(" ", "", "'", "", "’", "", "_", "")

// ParsePrice converts retailer price text such as "R 1 234,50" or "ZAR1,234.50"
// into a decimal amount. Text that does not reduce to a number yields zero;
// callers treat zero as unparseable.
func ParsePrice(text string) decimal.Decimal {
	s := norm.NFKC.String(text)
	s = strings.TrimFunc(s, isCurrencyOrSpace)
	s = groupSeparators.Replace(s)
	if !amountPattern.MatchString(s) {
		return decimal.Zero
	}

	plain, ok := normalizeSeparators(s)
	if !ok {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(plain)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// isCurrencyOrSpace matches the currency code or symbol wrapped around an amount.
func isCurrencyOrSpace(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.Is(unicode.Sc, r)
}

// normalizeSeparators rewrites s so '.' is the only, decimal, separator. It
// returns false when the digit grouping is malformed.
//
// With both separators present the rightmost one is the decimal mark. A lone
// separator of either kind is a thousands separator when exactly three digits
// follow it and the leading group is not zero, otherwise it is the decimal
// mark. Repeated marks of a single kind are always thousands separators.
func normalizeSeparators(s string) (string, bool) {
	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')

	var thousands, decimalMark byte
	switch {
	case lastComma >= 0 && lastDot >= 0:
		thousands, decimalMark = '.', ','
		if lastDot > lastComma {
			thousands, decimalMark = ',', '.'
		}
		if strings.Count(s, string(decimalMark)) > 1 {
			return "", false
		}
	case lastComma >= 0:
		thousands, decimalMark = loneSeparator(s, ',')
	case lastDot >= 0:
		thousands, decimalMark = loneSeparator(s, '.')
	default:
		return s, true
	}

	whole, fraction := s, ""
	if decimalMark != 0 {
		i := strings.LastIndexByte(s, decimalMark)
		whole, fraction = s[:i], s[i+1:]
	}
	if thousands != 0 && !validGroups(strings.TrimPrefix(whole, "-"), thousands) {
		return "", false
	}

	out := whole
	if thousands != 0 {
		out = strings.ReplaceAll(whole, string(thousands), "")
	}
	if fraction != "" {
		out += "." + fraction
	}
	return out, true
}

// loneSeparator classifies sep when it is the only kind of mark in s.
func loneSeparator(s string, sep byte) (thousands, decimalMark byte) {
	if strings.Count(s, string(sep)) > 1 {
		return sep, 0
	}
	i := strings.IndexByte(s, sep)
	lead := strings.TrimPrefix(s[:i], "-")
	if len(s)-i-1 == 3 && strings.TrimLeft(lead, "0") != "" {
		return sep, 0
	}
	return 0, sep
}

// validGroups reports whether every group after the first has exactly three
// digits and the first has one to three.
func validGroups(whole string, sep byte) bool {
	groups := strings.Split(whole, string(sep))
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

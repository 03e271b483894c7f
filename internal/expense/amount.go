package expense

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that cannot be read.
var ErrInvalidAmount = errors.New("invalid amount")

// minorUnitExponent is the number of decimal places kept in minor units.
const minorUnitExponent = 2

// commaDecimalLanguages write 1.234,56.
var commaDecimalLanguages = map[string]bool{
	"vi": true, "de": true, "fr": true, "es": true, "it": true, "pt": true,
	"nl": true, "id": true, "ru": true, "tr": true, "pl": true, "da": true,
	"sv": true, "nb": true, "fi": true, "cs": true,
}

// usesDecimalComma reports whether a locale such as "vi-VN" writes a decimal comma.
func usesDecimalComma(locale string) bool {
	lang := strings.ToLower(locale)
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return commaDecimalLanguages[lang]
}

// ParseAmount reads a money amount written for the given locale. Currency
// symbols, spaces and apostrophes are ignored; a trailing minus or
// parentheses mark negatives.
func ParseAmount(raw, locale string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' || r == '+':
			if b.Len() == 0 {
				b.WriteRune(r)
			}
		}
	}
	cleaned := b.String()

	if usesDecimalComma(locale) {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// ToMinorUnits converts a major-unit amount to absolute minor units.
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Abs().Shift(minorUnitExponent).Round(0).IntPart()
}

// FormatMinor renders minor units as a major-unit string with two decimals.
func FormatMinor(minor int64) string {
	return decimal.New(minor, -minorUnitExponent).StringFixed(minorUnitExponent)
}

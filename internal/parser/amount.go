package parser

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount parses a statement amount into cents. Both decimal-point and
// decimal-comma formats are accepted: "1,234.56", "1.234,56", "-588,74",
// "10.00". Currency symbols and spaces are ignored.
func parseAmount(s string) (int64, error) {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, s)

	if clean == "" {
		return 0, fmt.Errorf("empty amount %q", s)
	}

	// The rightmost separator is the decimal mark; the other is a thousands
	// separator and is dropped.
	lastComma := strings.LastIndexByte(clean, ',')
	lastPoint := strings.LastIndexByte(clean, '.')

	if lastComma > lastPoint {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

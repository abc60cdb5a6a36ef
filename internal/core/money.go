package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts cross the wire as JSON numbers, matching the clients this API
	// serves.
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount parses a user-supplied monetary amount. Accepts an optional
// leading sign and a comma decimal separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}

// SumAbs folds the absolute values of a set of signed amounts. Positive
// rows fold the same way as negative ones, so a broken sign convention can
// never double-count.
func SumAbs(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.Abs())
	}
	return total
}

package currency

import (
	"fmt"
	"math"
	"strings"
)

// FormatUSD renders amount the way the provider's own formatted prices
// look: whole dollars with comma thousands separators, e.g. "$1,234".
func FormatUSD(amount float64) string {
	rounded := math.Round(amount)

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	result := "$" + addThousandsSeparator(fmt.Sprintf("%.0f", rounded), ',')
	if negative {
		result = "-" + result
	}
	return result
}

func addThousandsSeparator(digits string, sep byte) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}

	var b strings.Builder
	b.Grow(n + (n-1)/3)

	lead := n % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < n; i += 3 {
		b.WriteByte(sep)
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

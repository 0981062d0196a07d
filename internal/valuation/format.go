package valuation

import (
	"fmt"
	"math"
	"strings"
)

// The display sign convention: positive values get "+", negative values
// get a typographic minus (U+2212), zero gets no prefix.
const minusSign = "−"

// FormatSigned renders a value with the display sign convention and two
// decimal places.
func FormatSigned(v float64) string {
	return signPrefix(v) + fmt.Sprintf("%.2f", math.Abs(v))
}

// FormatSignedPercent renders a percentage with the display sign
// convention, two decimal places and a trailing percent sign.
func FormatSignedPercent(v float64) string {
	return signPrefix(v) + fmt.Sprintf("%.2f%%", math.Abs(v))
}

func signPrefix(v float64) string {
	// Values that round to 0.00 display unprefixed.
	rounded := math.Round(v*100) / 100
	switch {
	case rounded > 0:
		return "+"
	case rounded < 0:
		return minusSign
	default:
		return ""
	}
}

// FormatMoney renders an unsigned two-decimal amount with a currency code.
func FormatMoney(v float64, currency string) string {
	return strings.TrimSpace(fmt.Sprintf("%.2f %s", v, currency))
}

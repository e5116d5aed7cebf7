package utils

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatPercent formats a percentage with an explicit sign, e.g. "+12.34%".
func FormatPercent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", v)
}

// FormatVolume formats a share volume with thousands separators, e.g. "1,234,567".
func FormatVolume(v float64) string {
	if math.IsNaN(v) || v == 0 {
		return "-"
	}
	return printer.Sprintf("%.0f", v)
}

// FormatPrice formats a price with thousands separators and two decimals.
func FormatPrice(v float64) string {
	return printer.Sprintf("%.2f", v)
}

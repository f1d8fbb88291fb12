// Package format renders amounts, ratios and dates for answer text.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySymbol prefixes every monetary amount.
const CurrencySymbol = "₦"

var printer = message.NewPrinter(language.English)

// Currency renders a monetary amount, switching to Trillion/Billion/Million
// units above one million. The unit is chosen on the absolute value.
func Currency(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e12:
		return CurrencySymbol + printer.Sprintf("%.3f Trillion", v/1e12)
	case abs >= 1e9:
		return CurrencySymbol + printer.Sprintf("%.3f Billion", v/1e9)
	case abs >= 1e6:
		return CurrencySymbol + printer.Sprintf("%.3f Million", v/1e6)
	}
	return Grouped(v)
}

// Grouped renders an exact amount with thousands separators and two decimals.
func Grouped(v float64) string {
	return CurrencySymbol + printer.Sprintf("%.2f", v)
}

// PerShare renders a per-share figure without unit scaling.
func PerShare(v float64) string {
	return CurrencySymbol + strconv.FormatFloat(v, 'f', -1, 64)
}

// Ratio renders a ratio metric recorded in percent.
func Ratio(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

// Multiple renders a valuation multiple such as a P/E ratio.
func Multiple(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "x"
}

// SignedPercent renders a percentage change with an explicit sign.
func SignedPercent(p float64) string {
	s := strconv.FormatFloat(p, 'f', 2, 64)
	if p >= 0 && !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s + "%"
}

// Date renders a calendar date in ISO form.
func Date(t time.Time) string {
	return t.Format("2006-01-02")
}

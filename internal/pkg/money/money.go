package money

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatTZS renders an amount in Tanzanian shillings with thousands grouping
// and no decimals, e.g. 5000 -> "5,000 TSHS".
func FormatTZS(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "0 TSHS"
	}
	return printer.Sprintf("%d TSHS", int64(math.Round(amount)))
}

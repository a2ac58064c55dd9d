package app

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const rupee = "₹"

var pricePrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatPrice renders an amount in Indian rupees with no fraction digits, e.g. ₹6,799.
func FormatPrice(amount int64) string {
	if amount < 0 {
		return "-" + rupee + pricePrinter.Sprintf("%d", -amount)
	}
	return rupee + pricePrinter.Sprintf("%d", amount)
}

package portfolio

import (
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
)

// FormatAmount renders amount in the given fiat currency, e.g. "$1,234.50".
// Codes go-money does not know are printed as "<amount> <CODE>".
func FormatAmount(amount float64, currency string) string {
	code := strings.ToUpper(currency)
	if money.GetCurrency(code) == nil {
		return strconv.FormatFloat(amount, 'f', 2, 64) + " " + code
	}
	return money.NewFromFloat(amount, code).Display()
}

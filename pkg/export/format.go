package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/sequenceit/proposaldesk/pkg/budget"
)

var symbols = map[budget.Currency]string{
	budget.BDT: "৳",
	budget.USD: "$",
	budget.EUR: "€",
}

// FormatAmount renders an amount with its currency symbol and two decimals.
// BDT uses lakh grouping (12,34,567.00), USD and EUR group by thousands.
func FormatAmount(amount float64, currency budget.Currency) string {
	symbol, ok := symbols[currency]
	if !ok {
		symbol, currency = symbols[budget.DefaultCurrency], budget.DefaultCurrency
	}
	return sign(amount) + symbol + group(amount, currency)
}

// FormatAmountCode is FormatAmount with the ISO code instead of the symbol, for
// the PDF whose core fonts have no taka glyph.
func FormatAmountCode(amount float64, currency budget.Currency) string {
	if _, ok := symbols[currency]; !ok {
		currency = budget.DefaultCurrency
	}
	return sign(amount) + string(currency) + " " + group(amount, currency)
}

func sign(amount float64) string {
	if amount < 0 && math.Abs(amount) >= 0.005 {
		return "-"
	}
	return ""
}

func group(amount float64, currency budget.Currency) string {
	raw := fmt.Sprintf("%.2f", math.Abs(amount))
	intPart, decPart, _ := strings.Cut(raw, ".")
	if currency == budget.BDT {
		return lakhGrouping(intPart) + "." + decPart
	}
	return thousandsGrouping(intPart) + "." + decPart
}

// lakhGrouping keeps the last three digits together and groups the rest in
// pairs.
func lakhGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	result := s[n-3:]
	rest := s[:n-3]
	for len(rest) > 2 {
		result = rest[len(rest)-2:] + "," + result
		rest = rest[:len(rest)-2]
	}
	return rest + "," + result
}

func thousandsGrouping(s string) string {
	var b strings.Builder
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteString(",")
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatQuantity drops the decimals of whole quantities.
func FormatQuantity(qty float64) string {
	if qty == math.Trunc(qty) {
		return fmt.Sprintf("%.0f", qty)
	}
	return fmt.Sprintf("%.2f", qty)
}

package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// GenerateCSV writes the budget as one flat sheet: a row per line item followed
// by the section subtotals and the grand total.
func GenerateCSV(data Data) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{{"Section", "#", "Description", "Quantity", "Cost", "Amount", "Currency", "Included"}}
	for _, s := range data.Sections {
		for _, r := range s.Rows {
			qty := ""
			if s.HasQuantity() {
				qty = FormatQuantity(r.Quantity)
			}
			records = append(records, []string{
				string(s.Category),
				strconv.Itoa(r.Ordinal),
				sanitizeCell(r.Name),
				qty,
				money(r.Cost),
				money(r.Amount),
				string(r.Currency),
				strconv.FormatBool(s.Enabled),
			})
		}
	}
	records = append(records, []string{})
	for _, s := range data.Sections {
		records = append(records, []string{s.Title, "", "", "", "", money(s.Total), "", strconv.FormatBool(s.Enabled)})
	}
	records = append(records, []string{"Total Budget", "", "", "", "", money(data.Totals.Grand), "", ""})

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

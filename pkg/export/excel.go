package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const budgetSheet = "Budget"

var (
	excelColumns = []string{"A", "B", "C", "D", "E", "F"}
	excelWidths  = []float64{6, 44, 10, 18, 18, 10}
)

type excelStyles struct {
	title, subtitle, section, header, item, money, disabled, totalLabel, totalMoney int
}

// GenerateExcel renders the budget into a single "Budget" sheet. Amount cells
// hold numbers so the workbook can be recalculated by the reader.
func GenerateExcel(data Data) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), budgetSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	for i, c := range excelColumns {
		if err := f.SetColWidth(budgetSheet, c, c, excelWidths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", c, err)
		}
	}
	st, err := newExcelStyles(f)
	if err != nil {
		return nil, err
	}
	last := excelColumns[len(excelColumns)-1]

	if err := f.MergeCell(budgetSheet, "A1", last+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(budgetSheet, "A1", sanitizeCell(data.Title))
	f.SetCellStyle(budgetSheet, "A1", last+"1", st.title)
	f.SetCellValue(budgetSheet, "A2", "Document: "+data.DocumentId)
	f.SetCellValue(budgetSheet, "A3", "Issued: "+data.IssueDate)
	f.SetCellStyle(budgetSheet, "A2", "A3", st.subtitle)

	row := 5
	for _, s := range data.Sections {
		r := fmt.Sprint(row)
		title := s.Title
		if !s.Enabled {
			title += " (not included)"
		}
		f.SetCellValue(budgetSheet, "A"+r, title)
		f.SetCellStyle(budgetSheet, "A"+r, last+r, st.section)
		row++

		r = fmt.Sprint(row)
		costHeader := "Cost"
		if s.HasQuantity() {
			costHeader = "Unit Cost"
		}
		for i, h := range []string{"#", "Description", "Qty", costHeader, "Amount", "Currency"} {
			f.SetCellValue(budgetSheet, excelColumns[i]+r, h)
		}
		f.SetCellStyle(budgetSheet, "A"+r, last+r, st.header)
		row++

		for _, item := range s.Rows {
			r = fmt.Sprint(row)
			f.SetCellValue(budgetSheet, "A"+r, item.Ordinal)
			f.SetCellValue(budgetSheet, "B"+r, sanitizeCell(item.Name))
			if s.HasQuantity() {
				f.SetCellValue(budgetSheet, "C"+r, item.Quantity)
			}
			f.SetCellValue(budgetSheet, "D"+r, item.Cost)
			f.SetCellValue(budgetSheet, "E"+r, item.Amount)
			f.SetCellValue(budgetSheet, "F"+r, string(item.Currency))
			style := st.item
			if !s.Enabled {
				style = st.disabled
			}
			f.SetCellStyle(budgetSheet, "A"+r, last+r, style)
			if s.Enabled {
				f.SetCellStyle(budgetSheet, "D"+r, "E"+r, st.money)
			}
			row++
		}

		r = fmt.Sprint(row)
		f.SetCellValue(budgetSheet, "D"+r, "Subtotal:")
		f.SetCellStyle(budgetSheet, "D"+r, "D"+r, st.totalLabel)
		f.SetCellValue(budgetSheet, "E"+r, s.Total)
		f.SetCellStyle(budgetSheet, "E"+r, "E"+r, st.totalMoney)
		row += 2
	}

	r := fmt.Sprint(row)
	f.SetCellValue(budgetSheet, "D"+r, "Total Budget:")
	f.SetCellStyle(budgetSheet, "D"+r, "D"+r, st.totalLabel)
	f.SetCellValue(budgetSheet, "E"+r, data.Totals.Grand)
	f.SetCellStyle(budgetSheet, "E"+r, "E"+r, st.totalMoney)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

type styleDef struct {
	dst   *int
	style *excelize.Style
}

func newExcelStyles(f *excelize.File) (excelStyles, error) {
	moneyFmt := "#,##0.00"
	var st excelStyles
	defs := []styleDef{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}},
		{&st.subtitle, &excelize.Style{Font: &excelize.Font{Size: 11, Color: "#555555"}}},
		{&st.section, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}}},
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorders(),
		}},
		{&st.item, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}},
		{&st.money, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), CustomNumFmt: &moneyFmt}},
		{&st.disabled, &excelize.Style{Font: &excelize.Font{Size: 10, Color: "#999999", Strike: true}, Border: thinBorders()}},
		{&st.totalLabel, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, Alignment: &excelize.Alignment{Horizontal: "right"}}},
		{&st.totalMoney, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, CustomNumFmt: &moneyFmt}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return excelStyles{}, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return st, nil
}

// sanitizeCell stops spreadsheet applications from reading a value as a formula.
func sanitizeCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}

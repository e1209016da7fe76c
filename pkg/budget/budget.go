package budget

import (
	"math"
	"strings"
)

type Category string

const (
	Infrastructure Category = "infrastructure"
	Development    Category = "development"
	Maintenance    Category = "maintenance"
	Risk           Category = "risk"
)

// Categories lists the cost sections in document order.
var Categories = []Category{Infrastructure, Development, Maintenance, Risk}

// ParseCategory accepts the category names and the short aliases used by the
// editor tables (infra, dev, maint). ok is false for anything else.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "infrastructure", "infra":
		return Infrastructure, true
	case "development", "dev":
		return Development, true
	case "maintenance", "maint":
		return Maintenance, true
	case "risk", "riskcontrol":
		return Risk, true
	}
	return "", false
}

// Optional reports whether the section can be excluded from the totals.
func (c Category) Optional() bool {
	return c == Maintenance || c == Risk
}

type Currency string

const (
	BDT Currency = "BDT"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// DefaultCurrency is used for new rows and for unrecognised currency values.
const DefaultCurrency = BDT

// ParseCurrency normalises a currency code. Unknown values fall back to BDT.
func ParseCurrency(s string) Currency {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case USD:
		return USD
	case EUR:
		return EUR
	default:
		return DefaultCurrency
	}
}

// LineItem is one row of a cost section.
//
// Cost is the unit cost for infrastructure rows, the cost for development and
// maintenance rows and the mitigation cost for risk rows. Quantity is only read
// for infrastructure rows.
type LineItem struct {
	Name     string
	Quantity float64
	Cost     float64
	Currency Currency
}

func newLineItem() LineItem {
	return LineItem{Currency: DefaultCurrency}
}

// Amount is the row's contribution to its section total. An amount that
// overflows float64 counts as 0, like any other unusable value.
func (i LineItem) Amount(category Category) float64 {
	if category == Infrastructure {
		return finite(i.Quantity * i.Cost)
	}
	return finite(i.Cost)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

type Section struct {
	Category Category
	// Enabled is only consulted for optional sections.
	Enabled bool
	Items   []LineItem
}

// Counts reports whether the section's rows take part in the totals.
func (s Section) Counts() bool {
	return !s.Category.Optional() || s.Enabled
}

func (s Section) Total() float64 {
	if !s.Counts() {
		return 0
	}
	var total float64
	for _, item := range s.Items {
		total += item.Amount(s.Category)
	}
	return finite(total)
}

// Row is a LineItem together with its displayed 1-based ordinal.
type Row struct {
	Ordinal int
	LineItem
}

func (s Section) Rows() []Row {
	rows := make([]Row, 0, len(s.Items))
	for i, item := range s.Items {
		rows = append(rows, Row{Ordinal: i + 1, LineItem: item})
	}
	return rows
}

type Snapshot struct {
	Infrastructure float64 `json:"infraTotal"`
	Development    float64 `json:"devTotal"`
	Maintenance    float64 `json:"maintTotal"`
	Risk           float64 `json:"riskTotal"`
	Grand          float64 `json:"grandTotal"`
}

// Of returns the subtotal for one category.
func (s Snapshot) Of(category Category) float64 {
	switch category {
	case Infrastructure:
		return s.Infrastructure
	case Development:
		return s.Development
	case Maintenance:
		return s.Maintenance
	case Risk:
		return s.Risk
	}
	return 0
}

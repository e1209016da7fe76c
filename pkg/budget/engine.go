package budget

import (
	"context"
	"strings"

	"github.com/sequenceit/proposaldesk/internal/event_bus"
	"github.com/sequenceit/proposaldesk/internal/lenient"
	log "github.com/sirupsen/logrus"
)

type Field string

const (
	FieldName     Field = "name"
	FieldQuantity Field = "quantity"
	FieldCost     Field = "cost"
	FieldCurrency Field = "currency"
)

// ParseField maps a column name to a Field. Besides the canonical names it
// accepts the keys used by the draft format (item, task, service, risk, qty,
// mitigation) so the editor can address cells by either.
func ParseField(s string) (Field, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name", "item", "task", "service", "risk", "description":
		return FieldName, true
	case "quantity", "qty":
		return FieldQuantity, true
	case "cost", "unitcost", "mitigation", "mitigationcost":
		return FieldCost, true
	case "currency":
		return FieldCurrency, true
	}
	return "", false
}

func (f Field) appliesTo(category Category) bool {
	if f == FieldQuantity {
		return category == Infrastructure
	}
	return f == FieldName || f == FieldCost || f == FieldCurrency
}

// Engine owns the four cost sections of one proposal and keeps their totals
// consistent. Every mutation is followed by a full recomputation which is
// published as a budget.recomputed event.
//
// Engine never returns errors: malformed values become zero and references to
// rows or sections that do not exist are ignored. It is not safe for concurrent
// use; callers own one Engine per editing session or request.
type Engine struct {
	ctx      context.Context
	bus      *event_bus.EventBus
	sections map[Category]*Section
}

// NewEngine creates an engine with empty sections. Optional sections start
// disabled. bus may be nil when nobody listens for recomputations.
func NewEngine(ctx context.Context, bus *event_bus.EventBus) *Engine {
	if ctx == nil {
		ctx = context.Background()
	}
	e := &Engine{ctx: ctx, bus: bus, sections: make(map[Category]*Section, len(Categories))}
	for _, c := range Categories {
		e.sections[c] = &Section{Category: c, Enabled: !c.Optional()}
	}
	return e
}

// AddRow appends a row with default values to the section.
func (e *Engine) AddRow(category Category) {
	s, ok := e.sections[category]
	if !ok {
		log.Debugf("add row: unknown section %q", category)
		return
	}
	s.Items = append(s.Items, newLineItem())
	e.changed()
}

// RemoveRow deletes the row at the 1-based position. Rows below it move up so
// ordinals stay contiguous.
func (e *Engine) RemoveRow(category Category, position int) {
	s, ok := e.sections[category]
	if !ok || position < 1 || position > len(s.Items) {
		log.Debugf("remove row: no row %d in section %q", position, category)
		return
	}
	idx := position - 1
	s.Items = append(s.Items[:idx:idx], s.Items[idx+1:]...)
	e.changed()
}

// SetField updates one cell. Numeric fields are parsed leniently: anything that
// is not a number is stored as 0.
func (e *Engine) SetField(category Category, position int, field Field, raw string) {
	s, ok := e.sections[category]
	if !ok || position < 1 || position > len(s.Items) {
		log.Debugf("set field: no row %d in section %q", position, category)
		return
	}
	if !field.appliesTo(category) {
		log.Debugf("set field: %q does not apply to section %q", field, category)
		return
	}
	item := &s.Items[position-1]
	switch field {
	case FieldName:
		item.Name = raw
	case FieldQuantity:
		item.Quantity = lenient.ParseNumber(raw)
	case FieldCost:
		item.Cost = lenient.ParseNumber(raw)
	case FieldCurrency:
		item.Currency = ParseCurrency(raw)
	}
	e.changed()
}

// SetSectionEnabled toggles whether an optional section counts towards the
// totals. Rows are kept as they are. Infrastructure and development always count.
func (e *Engine) SetSectionEnabled(category Category, enabled bool) {
	s, ok := e.sections[category]
	if !ok || !category.Optional() {
		log.Debugf("set enabled: section %q cannot be toggled", category)
		return
	}
	s.Enabled = enabled
	e.changed()
}

// Recompute derives the totals from the current rows. It has no side effects.
func (e *Engine) Recompute() Snapshot {
	var snap Snapshot
	snap.Infrastructure = e.sections[Infrastructure].Total()
	snap.Development = e.sections[Development].Total()
	snap.Maintenance = e.sections[Maintenance].Total()
	snap.Risk = e.sections[Risk].Total()
	snap.Grand = finite(snap.Infrastructure + snap.Development + snap.Maintenance + snap.Risk)
	return snap
}

// Section returns a copy of one section. Unknown categories yield an empty section.
func (e *Engine) Section(category Category) Section {
	s, ok := e.sections[category]
	if !ok {
		return Section{Category: category}
	}
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	return Section{Category: s.Category, Enabled: s.Enabled, Items: items}
}

// Sections returns copies of all sections in document order.
func (e *Engine) Sections() []Section {
	sections := make([]Section, 0, len(Categories))
	for _, c := range Categories {
		sections = append(sections, e.Section(c))
	}
	return sections
}

// Replace swaps a section's rows and flag wholesale, as loading a saved draft does.
func (e *Engine) Replace(section Section) {
	if !e.replace(section) {
		return
	}
	e.changed()
}

func (e *Engine) replace(section Section) bool {
	s, ok := e.sections[section.Category]
	if !ok {
		log.Debugf("replace: unknown section %q", section.Category)
		return false
	}
	items := make([]LineItem, len(section.Items))
	copy(items, section.Items)
	s.Items = items
	s.Enabled = section.Enabled || !section.Category.Optional()
	return true
}

func (e *Engine) changed() {
	snap := e.Recompute()
	if e.bus == nil {
		return
	}
	err := e.bus.Publish(event_bus.NewEvent(e.ctx, event_bus.BudgetRecomputedEvent, event_bus.BudgetRecomputed{
		InfraTotal:         snap.Infrastructure,
		DevTotal:           snap.Development,
		MaintTotal:         snap.Maintenance,
		RiskTotal:          snap.Risk,
		GrandTotal:         snap.Grand,
		MaintenanceEnabled: e.sections[Maintenance].Enabled,
		RiskEnabled:        e.sections[Risk].Enabled,
	}))
	if err != nil {
		log.Warnf("budget recomputed but subscribers failed: %v", err)
	}
}

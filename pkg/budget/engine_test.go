package budget

import (
	"context"
	"math/rand"
	"strconv"
	"testing"

	"github.com/sequenceit/proposaldesk/internal/event_bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addInfra(e *Engine, qty, cost string) {
	e.AddRow(Infrastructure)
	n := len(e.Section(Infrastructure).Items)
	e.SetField(Infrastructure, n, FieldQuantity, qty)
	e.SetField(Infrastructure, n, FieldCost, cost)
}

func addCost(e *Engine, category Category, name, cost string) {
	e.AddRow(category)
	n := len(e.Section(category).Items)
	e.SetField(category, n, FieldName, name)
	e.SetField(category, n, FieldCost, cost)
}

func TestEngine_AddRow(t *testing.T) {
	// given
	e := NewEngine(context.Background(), nil)

	// when
	e.AddRow(Infrastructure)
	e.AddRow(Risk)

	// then
	infra := e.Section(Infrastructure)
	require.Len(t, infra.Items, 1)
	assert.Equal(t, LineItem{Currency: BDT}, infra.Items[0])
	assert.Len(t, e.Section(Risk).Items, 1)
	assert.Equal(t, Snapshot{}, e.Recompute())
}

func TestEngine_InfrastructureTotal(t *testing.T) {
	t.Run("should sum quantity times unit cost", func(t *testing.T) {
		e := NewEngine(context.Background(), nil)
		pairs := [][2]float64{{2, 5000}, {1, 3000}, {0, 999}, {3.5, 200}}
		want := 0.0
		for _, p := range pairs {
			addInfra(e, strconv.FormatFloat(p[0], 'f', -1, 64), strconv.FormatFloat(p[1], 'f', -1, 64))
			want += p[0] * p[1]
		}

		assert.InDelta(t, want, e.Recompute().Infrastructure, 1e-9)
	})

	t.Run("should treat unparseable quantity as zero", func(t *testing.T) {
		e := NewEngine(context.Background(), nil)
		addInfra(e, "abc", "5000")
		addInfra(e, "2", "")

		assert.Equal(t, 0.0, e.Recompute().Infrastructure)
	})

	t.Run("should not clamp negative values", func(t *testing.T) {
		e := NewEngine(context.Background(), nil)
		addInfra(e, "2", "100")
		addInfra(e, "1", "-50")

		assert.Equal(t, 150.0, e.Recompute().Infrastructure)
	})

	t.Run("should treat an overflowing row amount as zero", func(t *testing.T) {
		e := NewEngine(context.Background(), nil)
		addInfra(e, "1e200", "1e200")
		addInfra(e, "2", "100")

		snap := e.Recompute()

		assert.Equal(t, 200.0, snap.Infrastructure)
		assert.Equal(t, 200.0, snap.Grand)
	})
}

func TestEngine_OverflowingTotals(t *testing.T) {
	t.Run("should treat an overflowing section total as zero", func(t *testing.T) {
		// given
		e := NewEngine(context.Background(), nil)
		addCost(e, Development, "Backend", "1e308")
		addCost(e, Development, "Frontend", "1e308")

		// when
		snap := e.Recompute()

		// then
		assert.Equal(t, 0.0, snap.Development)
		assert.Equal(t, 0.0, snap.Grand)
	})

	t.Run("should treat an overflowing grand total as zero", func(t *testing.T) {
		// given
		e := NewEngine(context.Background(), nil)
		addInfra(e, "1", "1e308")
		addCost(e, Development, "Backend", "1e308")

		// when
		snap := e.Recompute()

		// then
		assert.Equal(t, 1e308, snap.Infrastructure)
		assert.Equal(t, 1e308, snap.Development)
		assert.Equal(t, 0.0, snap.Grand)
	})
}

func TestEngine_SetSectionEnabled(t *testing.T) {
	t.Run("should zero a disabled section and restore it exactly", func(t *testing.T) {
		// given
		e := NewEngine(context.Background(), nil)
		e.SetSectionEnabled(Maintenance, true)
		addCost(e, Maintenance, "Hosting", "1234.56")
		addCost(e, Maintenance, "Support", "7000")
		before := e.Recompute()

		// when
		e.SetSectionEnabled(Maintenance, false)
		disabled := e.Recompute()
		e.SetSectionEnabled(Maintenance, true)
		restored := e.Recompute()

		// then
		assert.Equal(t, 0.0, disabled.Maintenance)
		assert.Len(t, e.Section(Maintenance).Items, 2)
		assert.Equal(t, before, restored)
	})

	t.Run("should ignore toggling a mandatory section", func(t *testing.T) {
		e := NewEngine(context.Background(), nil)
		addCost(e, Development, "Backend", "100")

		e.SetSectionEnabled(Development, false)

		assert.True(t, e.Section(Development).Enabled)
		assert.Equal(t, 100.0, e.Recompute().Development)
	})
}

func TestEngine_RemoveRow(t *testing.T) {
	t.Run("should renumber remaining rows", func(t *testing.T) {
		// given
		e := NewEngine(context.Background(), nil)
		addCost(e, Development, "first", "1")
		addCost(e, Development, "second", "2")
		addCost(e, Development, "third", "3")

		// when
		e.RemoveRow(Development, 2)

		// then
		rows := e.Section(Development).Rows()
		require.Len(t, rows, 2)
		assert.Equal(t, 1, rows[0].Ordinal)
		assert.Equal(t, "first", rows[0].Name)
		assert.Equal(t, 2, rows[1].Ordinal)
		assert.Equal(t, "third", rows[1].Name)
		assert.Equal(t, 4.0, e.Recompute().Development)
	})

	t.Run("should ignore positions out of range", func(t *testing.T) {
		e := NewEngine(context.Background(), nil)
		addCost(e, Development, "only", "10")

		e.RemoveRow(Development, 0)
		e.RemoveRow(Development, 2)
		e.RemoveRow(Category("unknown"), 1)

		assert.Len(t, e.Section(Development).Items, 1)
	})
}

func TestEngine_SetField(t *testing.T) {
	t.Run("should store zero for non-numeric input", func(t *testing.T) {
		e := NewEngine(context.Background(), nil)
		addCost(e, Development, "Design", "500")

		assert.NotPanics(t, func() { e.SetField(Development, 1, FieldCost, "abc") })

		assert.Equal(t, 0.0, e.Section(Development).Items[0].Cost)
		assert.Equal(t, 0.0, e.Recompute().Development)
	})

	t.Run("should normalise currency", func(t *testing.T) {
		e := NewEngine(context.Background(), nil)
		e.AddRow(Infrastructure)

		e.SetField(Infrastructure, 1, FieldCurrency, "usd")
		assert.Equal(t, USD, e.Section(Infrastructure).Items[0].Currency)

		e.SetField(Infrastructure, 1, FieldCurrency, "GBP")
		assert.Equal(t, BDT, e.Section(Infrastructure).Items[0].Currency)
	})

	t.Run("should ignore quantity outside infrastructure", func(t *testing.T) {
		e := NewEngine(context.Background(), nil)
		addCost(e, Development, "Backend", "100")

		e.SetField(Development, 1, FieldQuantity, "3")

		assert.Equal(t, 0.0, e.Section(Development).Items[0].Quantity)
		assert.Equal(t, 100.0, e.Recompute().Development)
	})

	t.Run("should ignore missing rows", func(t *testing.T) {
		e := NewEngine(context.Background(), nil)

		assert.NotPanics(t, func() { e.SetField(Risk, 3, FieldCost, "10") })
		assert.Empty(t, e.Section(Risk).Items)
	})
}

func TestEngine_GrandTotalIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e := NewEngine(context.Background(), nil)
	fields := []Field{FieldName, FieldQuantity, FieldCost, FieldCurrency}
	values := []string{"12", "0", "-3", "2.5", "abc", "", "1,000", "USD"}

	for i := 0; i < 500; i++ {
		category := Categories[rng.Intn(len(Categories))]
		switch rng.Intn(4) {
		case 0:
			e.AddRow(category)
		case 1:
			e.RemoveRow(category, rng.Intn(5))
		case 2:
			e.SetField(category, 1+rng.Intn(4), fields[rng.Intn(len(fields))], values[rng.Intn(len(values))])
		case 3:
			e.SetSectionEnabled(category, rng.Intn(2) == 0)
		}

		snap := e.Recompute()
		require.InDelta(t, snap.Infrastructure+snap.Development+snap.Maintenance+snap.Risk, snap.Grand, 1e-6)
		for _, s := range e.Sections() {
			if !s.Counts() {
				require.Equal(t, 0.0, snap.Of(s.Category))
			}
			for j, row := range s.Rows() {
				require.Equal(t, j+1, row.Ordinal)
			}
		}
	}
}

func TestEngine_EndToEnd(t *testing.T) {
	// given
	e := NewEngine(context.Background(), nil)
	addInfra(e, "2", "5000")
	addInfra(e, "1", "3000")
	addCost(e, Development, "Platform", "100000")
	addCost(e, Maintenance, "Annual support", "10000")
	e.SetSectionEnabled(Risk, true)
	addCost(e, Risk, "Vendor delay", "20000")

	// when
	before := e.Recompute()
	e.SetSectionEnabled(Maintenance, true)
	after := e.Recompute()

	// then
	assert.Equal(t, Snapshot{Infrastructure: 13000, Development: 100000, Maintenance: 0, Risk: 20000, Grand: 133000}, before)
	assert.Equal(t, Snapshot{Infrastructure: 13000, Development: 100000, Maintenance: 10000, Risk: 20000, Grand: 143000}, after)
}

func TestEngine_PublishesRecomputation(t *testing.T) {
	// given
	bus := event_bus.NewEventBus()
	var events []event_bus.BudgetRecomputed
	event_bus.SubscribeTyped(bus, event_bus.BudgetRecomputedEvent, func(e event_bus.EventT[event_bus.BudgetRecomputed]) error {
		events = append(events, e.Data)
		return nil
	})
	e := NewEngine(context.Background(), bus)

	// when
	e.AddRow(Development)
	e.SetField(Development, 1, FieldCost, "250")
	e.SetSectionEnabled(Risk, true)

	// then
	require.Len(t, events, 3)
	assert.Equal(t, 250.0, events[1].DevTotal)
	assert.Equal(t, 250.0, events[1].GrandTotal)
	assert.True(t, events[2].RiskEnabled)
	assert.False(t, events[2].MaintenanceEnabled)
}

func TestEngine_SubscriberFailureDoesNotLeak(t *testing.T) {
	bus := event_bus.NewEventBus()
	bus.Subscribe(event_bus.BudgetRecomputedEvent, func(event_bus.Event) error { panic("display broke") })
	e := NewEngine(context.Background(), bus)

	assert.NotPanics(t, func() { addCost(e, Development, "Backend", "10") })
	assert.Equal(t, 10.0, e.Recompute().Grand)
}

func TestParseField(t *testing.T) {
	for raw, want := range map[string]Field{
		"item": FieldName, "task": FieldName, "service": FieldName, "risk": FieldName,
		"qty": FieldQuantity, "unitCost": FieldCost, "mitigation": FieldCost, "Currency": FieldCurrency,
	} {
		got, ok := ParseField(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := ParseField("colour")
	assert.False(t, ok)
}

package budget

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDraft = `{
  "infrastructureCosts": [
    {"item": "Server", "qty": 2, "cost": 5000, "currency": "BDT"},
    {"item": "Router", "qty": "1", "cost": "3,000", "currency": "BDT"}
  ],
  "developmentCosts": [{"task": "Platform", "cost": 100000, "currency": "USD"}],
  "maintenanceCosts": {"include": "no", "costs": [{"service": "Support", "cost": 10000, "currency": "BDT"}]},
  "riskControl": {"include": true, "budget": [{"risk": "Vendor delay", "mitigation": 20000, "currency": "EUR"}]}
}`

func TestEngine_Import(t *testing.T) {
	t.Run("should load every section and its flag", func(t *testing.T) {
		// given
		d, err := ParseDraft([]byte(sampleDraft))
		require.NoError(t, err)
		e := NewEngine(context.Background(), nil)

		// when
		e.Import(d)

		// then
		assert.Equal(t, Snapshot{Infrastructure: 13000, Development: 100000, Risk: 20000, Grand: 133000}, e.Recompute())
		assert.False(t, e.Section(Maintenance).Enabled)
		assert.True(t, e.Section(Risk).Enabled)
		assert.Equal(t, USD, e.Section(Development).Items[0].Currency)
		assert.Equal(t, LineItem{Name: "Router", Quantity: 1, Cost: 3000, Currency: BDT}, e.Section(Infrastructure).Items[1])
	})

	t.Run("should leave risk empty and disabled when missing", func(t *testing.T) {
		// given
		d, err := ParseDraft([]byte(`{
		  "infrastructureCosts": [{"item": "Server", "qty": 2, "cost": 5000}],
		  "developmentCosts": [{"task": "Platform", "cost": 100000}]
		}`))
		require.NoError(t, err)
		e := NewEngine(context.Background(), nil)
		e.SetSectionEnabled(Risk, true)
		addCost(e, Risk, "stale", "999")

		// when
		e.Import(d)

		// then
		risk := e.Section(Risk)
		assert.False(t, risk.Enabled)
		assert.Empty(t, risk.Items)
		snap := e.Recompute()
		assert.Equal(t, 10000.0, snap.Infrastructure)
		assert.Equal(t, 100000.0, snap.Development)
		assert.Equal(t, 110000.0, snap.Grand)
	})

	t.Run("should default a missing quantity to one", func(t *testing.T) {
		d, err := ParseDraft([]byte(`{"infrastructureCosts": [{"item": "Licence", "cost": 700}, {"item": "Zero", "qty": 0, "cost": 5}]}`))
		require.NoError(t, err)
		e := NewEngine(context.Background(), nil)

		e.Import(d)

		items := e.Section(Infrastructure).Items
		assert.Equal(t, 1.0, items[0].Quantity)
		assert.Equal(t, 0.0, items[1].Quantity)
		assert.Equal(t, 700.0, e.Recompute().Infrastructure)
	})

	t.Run("should degrade malformed values", func(t *testing.T) {
		// given
		d, err := ParseDraft([]byte(`{
		  "infrastructureCosts": "not a list",
		  "developmentCosts": [42, {"task": 7, "cost": "1500"}, {"task": "QA", "cost": {"x": 1}}],
		  "maintenanceCosts": "yes",
		  "riskControl": {"include": 1, "budget": {"risk": "x"}}
		}`))
		require.NoError(t, err)
		e := NewEngine(context.Background(), nil)

		// when
		e.Import(d)

		// then
		assert.Empty(t, e.Section(Infrastructure).Items)
		dev := e.Section(Development).Items
		require.Len(t, dev, 2)
		assert.Equal(t, LineItem{Cost: 1500, Currency: BDT}, dev[0])
		assert.Equal(t, LineItem{Name: "QA", Currency: BDT}, dev[1])
		assert.False(t, e.Section(Maintenance).Enabled)
		assert.True(t, e.Section(Risk).Enabled)
		assert.Empty(t, e.Section(Risk).Items)
		assert.Equal(t, 1500.0, e.Recompute().Grand)
	})
}

func TestParseDraft_RejectsBrokenJSON(t *testing.T) {
	_, err := ParseDraft([]byte(`{"infrastructureCosts": [`))
	assert.Error(t, err)
}

func TestEngine_Export(t *testing.T) {
	// given
	d, err := ParseDraft([]byte(sampleDraft))
	require.NoError(t, err)
	e := NewEngine(context.Background(), nil)
	e.Import(d)

	// when
	exported := e.Export()
	data, err := json.Marshal(exported)
	require.NoError(t, err)
	reloaded, err := ParseDraft(data)
	require.NoError(t, err)
	other := NewEngine(context.Background(), nil)
	other.Import(reloaded)

	// then
	assert.Equal(t, e.Sections(), other.Sections())
	assert.JSONEq(t, `{"item":"Server","qty":2,"cost":5000,"currency":"BDT"}`, string(mustMarshal(t, exported.InfrastructureCosts[0])))
	assert.Equal(t, false, bool(exported.MaintenanceCosts.Include))
}

func TestEngine_ExportEmpty(t *testing.T) {
	data, err := json.Marshal(NewEngine(context.Background(), nil).Export())

	require.NoError(t, err)
	assert.JSONEq(t, `{
	  "infrastructureCosts": [],
	  "developmentCosts": [],
	  "maintenanceCosts": {"include": false, "costs": []},
	  "riskControl": {"include": false, "budget": []}
	}`, string(data))
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestDraft_HideEmptyOptional(t *testing.T) {
	t.Run("should switch off included sections without rows", func(t *testing.T) {
		// given
		d, err := ParseDraft([]byte(`{
		  "maintenanceCosts": {"include": true, "costs": []},
		  "riskControl": {"include": true}
		}`))
		require.NoError(t, err)

		// when
		hidden := d.HideEmptyOptional()

		// then
		assert.False(t, bool(hidden.MaintenanceCosts.Include))
		assert.False(t, bool(hidden.RiskControl.Include))
		assert.True(t, bool(d.MaintenanceCosts.Include))
	})

	t.Run("should keep included sections with rows", func(t *testing.T) {
		d, err := ParseDraft([]byte(sampleDraft))
		require.NoError(t, err)

		hidden := d.HideEmptyOptional()

		assert.Equal(t, d, hidden)
	})

	t.Run("should leave missing sections alone", func(t *testing.T) {
		hidden := Draft{}.HideEmptyOptional()

		assert.Nil(t, hidden.MaintenanceCosts)
		assert.Nil(t, hidden.RiskControl)
	})
}

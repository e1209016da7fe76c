package lenient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"integer", "5000", 5000},
		{"decimal", "2.5", 2.5},
		{"surrounding spaces", "  42 ", 42},
		{"grouping commas", "1,250.50", 1250.5},
		{"negative is kept", "-300", -300},
		{"empty", "", 0},
		{"text", "abc", 0},
		{"trailing garbage", "12abc", 0},
		{"nan", "NaN", 0},
		{"infinity", "Inf", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.raw))
		})
	}
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	var v struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
		E Number `json:"e"`
	}

	err := json.Unmarshal([]byte(`{"a": 12.5, "b": "3000", "c": null, "d": {"x": 1}, "e": "n/a"}`), &v)

	require.NoError(t, err)
	assert.Equal(t, Number(12.5), v.A)
	assert.Equal(t, Number(3000), v.B)
	assert.Equal(t, Number(0), v.C)
	assert.Equal(t, Number(0), v.D)
	assert.Equal(t, Number(0), v.E)
}

func TestFlag_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want Flag
	}{
		{`true`, true},
		{`false`, false},
		{`"yes"`, true},
		{`"no"`, false},
		{`"TRUE"`, true},
		{`1`, true},
		{`0`, false},
		{`null`, false},
		{`{}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var f Flag
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &f))
			assert.Equal(t, tt.want, f)
		})
	}
}

type row struct {
	Name string `json:"name"`
	Cost Number `json:"cost"`
}

func TestList_UnmarshalJSON(t *testing.T) {
	t.Run("decodes well formed rows", func(t *testing.T) {
		var l List[row]
		require.NoError(t, json.Unmarshal([]byte(`[{"name":"a","cost":1},{"name":"b","cost":"2"}]`), &l))
		assert.Equal(t, List[row]{{"a", 1}, {"b", 2}}, l)
	})

	t.Run("non-array becomes empty", func(t *testing.T) {
		l := List[row]{{"stale", 1}}
		require.NoError(t, json.Unmarshal([]byte(`"oops"`), &l))
		assert.Empty(t, l)
	})

	t.Run("skips non-object elements", func(t *testing.T) {
		var l List[row]
		require.NoError(t, json.Unmarshal([]byte(`[1, "x", null, {"name":"kept"}]`), &l))
		assert.Equal(t, List[row]{{Name: "kept"}}, l)
	})

	t.Run("keeps fields that decoded when one has the wrong type", func(t *testing.T) {
		var l List[row]
		require.NoError(t, json.Unmarshal([]byte(`[{"name": 7, "cost": 10}]`), &l))
		require.Len(t, l, 1)
		assert.Equal(t, "", l[0].Name)
		assert.Equal(t, Number(10), l[0].Cost)
	})
}

package generator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain object", `{"a": 1}`, `{"a": 1}`},
		{"fenced with language", "Here you go:\n```json\n{\"a\": 1}\n```\nThanks", `{"a": 1}`},
		{"fenced without language", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounded by prose", `The proposal is {"a": 1} as requested.`, `{"a": 1}`},
		{"trailing commas", "{\"a\": [1, 2,],\n\"b\": 3,\n}", "{\"a\": [1, 2],\n\"b\": 3}"},
		{"line comment", "{\n\"a\": 1 // the answer\n}", "{\n\"a\": 1\n}"},
		{"slashes inside a string", `{"url": "https://example.com"}`, `{"url": "https://example.com"}`},
		{"no object", "sorry, I cannot help", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.content))
		})
	}
}

func TestExtractJSON_ResultIsValid(t *testing.T) {
	content := "```json\n{\n  \"projectTitle\": \"CRM\", // name\n  \"infrastructureCosts\": [{\"item\": \"VM\", \"cost\": 100,},],\n}\n```"

	var v map[string]any
	err := json.Unmarshal([]byte(ExtractJSON(content)), &v)

	assert.NoError(t, err)
	assert.Equal(t, "CRM", v["projectTitle"])
}

// Package lenient holds JSON value types that never fail to decode.
// Draft documents come from hand-edited files and from LLM output, so a wrongly
// typed value degrades to its zero value instead of rejecting the whole document.
package lenient

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ParseNumber parses raw as a floating-point number. Empty, non-numeric, NaN and
// infinite input yields 0. Grouping commas ("1,250.50") are accepted.
func ParseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Number is a float64 that accepts JSON numbers, numeric strings, null and
// anything else (which becomes 0).
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*n = 0
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		*n = Number(ParseNumber(s))
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*n = Number(ParseNumber(string(data)))
	default:
		*n = 0
	}
	return nil
}

func (n Number) Float() float64 {
	return float64(n)
}

// Flag is a bool that also understands the editor's "yes"/"no" toggle values,
// numeric 1/0 and quoted booleans.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*f = false
		return nil
	}
	switch v := raw.(type) {
	case bool:
		*f = Flag(v)
	case float64:
		*f = v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "true", "1", "on":
			*f = true
		default:
			*f = false
		}
	default:
		*f = false
	}
	return nil
}

// List decodes a JSON array element by element. A non-array value decodes to an
// empty list, elements that are not objects are skipped, and an element whose
// fields have the wrong types keeps the fields that did decode.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		log.Debugf("expected array, got %.32s; using empty list", string(data))
		*l = nil
		return nil
	}
	items := make([]T, 0, len(raws))
	for i, raw := range raws {
		if !isObject(raw) {
			log.Debugf("skipping element %d: not an object", i)
			continue
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &typeErr) {
				log.Debugf("skipping malformed element %d: %v", i, err)
				continue
			}
			log.Debugf("element %d partially decoded: %v", i, err)
		}
		items = append(items, item)
	}
	*l = items
	return nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

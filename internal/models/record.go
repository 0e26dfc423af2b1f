package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Record is a schedule as returned by the backend, decoded into a generic map.
// Field names are normally snake_case, but records that already use the
// internal camelCase names are tolerated
type Record map[string]any

// RecordFromWire converts any JSON-encodable value into a Record
func RecordFromWire(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}

// Value returns the first key that is present with a non-null value
func (r Record) Value(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Text coalesces keys into a string; numbers are formatted, anything else yields ""
func (r Record) Text(keys ...string) string {
	v, ok := r.Value(keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return ""
	}
}

// Bool coalesces keys into a bool. Numeric 0/1 are accepted as written by SQLite-backed services
func (r Record) Bool(keys ...string) bool {
	v, ok := r.Value(keys...)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	default:
		return false
	}
}

// Int coalesces keys into an int, rounding fractional numbers
func (r Record) Int(keys ...string) int {
	v, ok := r.Value(keys...)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int(math.Round(t))
	case int:
		return t
	case int64:
		return int(t)
	case json.Number:
		f, _ := t.Float64()
		return int(math.Round(f))
	case string:
		n, _ := strconv.Atoi(t)
		return n
	default:
		return 0
	}
}

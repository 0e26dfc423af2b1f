package recurrence

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// Wire is the backend's repeat_type value, e.g. {"type":"custom","interval_minutes":45}
// or {"type":"weekly","days":["Mon","Wed"]}
type Wire struct {
	Type            string
	IntervalMinutes int
	Days            []WireDay
}

// MarshalJSON emits payload fields only for the kinds that carry them
func (w Wire) MarshalJSON() ([]byte, error) {
	out := map[string]any{"type": w.Type}
	switch Kind(w.Type) {
	case KindCustom:
		out["interval_minutes"] = w.IntervalMinutes
	case KindWeekly:
		days := w.Days
		if days == nil {
			days = []WireDay{}
		}
		out["days"] = days
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both interval_minutes and intervalMinutes so records
// that are already in the internal shape still decode
func (w *Wire) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type          string          `json:"type"`
		IntervalSnake json.RawMessage `json:"interval_minutes"`
		IntervalCamel json.RawMessage `json:"intervalMinutes"`
		Days          json.RawMessage `json:"days"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	w.Type = raw.Type
	w.Days = nil
	if len(raw.Days) > 0 {
		// a non-array days value leaves the rule with no days
		_ = json.Unmarshal(raw.Days, &w.Days)
	}
	w.IntervalMinutes = 0
	for _, candidate := range []json.RawMessage{raw.IntervalSnake, raw.IntervalCamel} {
		if n, ok := decodeInt(candidate); ok {
			w.IntervalMinutes = n
			break
		}
	}
	return nil
}

// WireDay is one weekday token: an integer index or a (case-insensitive) name
type WireDay struct {
	name  string
	num   int
	isNum bool
	valid bool
}

// DayName builds a named token such as "Mon"
func DayName(name string) WireDay {
	return WireDay{name: name, valid: true}
}

// DayNumber builds a numeric token; it is reduced mod 7 when read
func DayNumber(n int) WireDay {
	return WireDay{num: n, isNum: true, valid: true}
}

// Index resolves the token to 0-6. ok is false for unrecognized tokens
func (d WireDay) Index() (int, bool) {
	if !d.valid {
		return 0, false
	}
	if d.isNum {
		return wrapDay(d.num), true
	}
	key := strings.ToLower(strings.TrimSpace(d.name))
	for i, label := range WeekdayLabels {
		if strings.ToLower(label) == key {
			return i, true
		}
	}
	return 0, false
}

func (d WireDay) MarshalJSON() ([]byte, error) {
	if d.isNum {
		return json.Marshal(d.num)
	}
	return json.Marshal(d.name)
}

// UnmarshalJSON never fails: tokens that are neither integers nor strings
// are kept as invalid and filtered out by FromWire
func (d *WireDay) UnmarshalJSON(data []byte) error {
	*d = WireDay{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			*d = DayName(s)
		}
		return nil
	}
	if n, ok := decodeInt(trimmed); ok {
		*d = DayNumber(n)
	}
	return nil
}

func decodeInt(data json.RawMessage) (int, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, false
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

package recurrence

import (
	"encoding/json"
	"slices"
	"testing"
	"time"
)

func decodeWire(t *testing.T, raw string) Wire {
	t.Helper()
	var w Wire
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("failed to decode %s: %v", raw, err)
	}
	return w
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Recurrence
	}{
		{"once", Once()},
		{"daily", Daily()},
		{"weekdays", Weekdays()},
		{"weekends", Weekends()},
		{"custom", Custom(45)},
		{"weekly", Weekly(1, 3, 5)},
		{"weekly empty", Weekly()},
		{"weekly out of range", Weekly(8, -1, 3)},
		{"weekly colliding after wrap", Weekly(1, 8)},
		{"weekly repeated day", Weekly(3, 3)},
		{"weekly sunday aliases", Weekly(0, 7, -7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromWire(ToWire(tt.in))
			if !got.Equal(tt.in) {
				t.Errorf("FromWire(ToWire(%+v)) = %+v", tt.in, got)
			}

			// and through JSON, as it travels to the backend
			data, err := json.Marshal(ToWire(tt.in))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			viaJSON := FromWire(decodeWire(t, string(data)))
			if !viaJSON.Equal(tt.in) {
				t.Errorf("JSON round trip of %+v = %+v (wire %s)", tt.in, viaJSON, data)
			}
		})
	}
}

func TestFromWireWeeklyTolerance(t *testing.T) {
	got := FromWire(decodeWire(t, `{"type":"weekly","days":["sun", 8, "Mon"]}`))
	if got.Kind != KindWeekly {
		t.Fatalf("expected weekly, got %q", got.Kind)
	}
	if !slices.Equal(got.Days, []int{0, 1}) {
		t.Errorf("expected days [0 1], got %v", got.Days)
	}
}

func TestFromWireDropsUnrecognizedDays(t *testing.T) {
	got := FromWire(decodeWire(t, `{"type":"weekly","days":["Funday","TUE",2.5,null,{"x":1},14,"sat"]}`))
	if !slices.Equal(got.Days, []int{2, 0, 6}) {
		t.Errorf("expected days [2 0 6], got %v", got.Days)
	}
}

func TestFromWireTags(t *testing.T) {
	tests := []struct {
		raw  string
		want Recurrence
	}{
		{`{"type":"daily"}`, Daily()},
		{`{"type":"DAILY"}`, Daily()},
		{`{"type":"weekends","days":["Mon"]}`, Weekends()},
		{`{"type":"fortnightly"}`, Once()},
		{`{}`, Once()},
		{`{"type":"custom","interval_minutes":30}`, Custom(30)},
		{`{"type":"custom","intervalMinutes":15}`, Custom(15)},
		{`{"type":"weekly"}`, Weekly()},
		{`{"type":"weekly","days":"Mon"}`, Weekly()},
		{`{"type":"weekly","days":[1,3]}`, Weekly(1, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := FromWire(decodeWire(t, tt.raw))
			if !got.Equal(tt.want) {
				t.Errorf("FromWire(%s) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFromWireWeeklyNeverNil(t *testing.T) {
	got := FromWire(Wire{Type: "weekly"})
	if got.Days == nil {
		t.Error("expected non-nil days for weekly rule")
	}
}

func TestNormalizeWeeklyDays(t *testing.T) {
	tests := []struct {
		in   []int
		want []int
	}{
		{[]int{1, 3, 5}, []int{1, 3, 5}},
		{[]int{5, 1}, []int{5, 1}},
		{[]int{1, 8}, []int{1}},
		{[]int{3, 3}, []int{3}},
		{[]int{0, 7, -7}, []int{0}},
		{[]int{-1, 6, 2}, []int{6, 2}},
	}

	for _, tt := range tests {
		got := Normalize(Weekly(tt.in...)).Days
		if !slices.Equal(got, tt.want) {
			t.Errorf("Normalize(Weekly(%v)).Days = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestToWireJSON(t *testing.T) {
	tests := []struct {
		in   Recurrence
		want string
	}{
		{Daily(), `{"type":"daily"}`},
		{Custom(45), `{"interval_minutes":45,"type":"custom"}`},
		{Weekly(1, 3), `{"days":["Mon","Wed"],"type":"weekly"}`},
		{Weekly(-1, 9), `{"days":["Sat","Tue"],"type":"weekly"}`},
		{Weekly(), `{"days":[],"type":"weekly"}`},
		{Recurrence{Kind: "bogus"}, `{"type":"once"}`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(ToWire(tt.in))
		if err != nil {
			t.Fatalf("marshal %+v: %v", tt.in, err)
		}
		if string(data) != tt.want {
			t.Errorf("ToWire(%+v) = %s, want %s", tt.in, data, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   Recurrence
		want string
	}{
		{Once(), "Once"},
		{Daily(), "Daily"},
		{Weekdays(), "Weekdays"},
		{Weekends(), "Weekends"},
		{Custom(45), "Every 45m"},
		{Weekly(1, 3), "Mon, Wed"},
		{Weekly(5, 0, 3), "Sun, Wed, Fri"},
		{Weekly(8, 1), "Mon"},
		{Weekly(), "Weekly"},
		{Recurrence{Kind: "bogus"}, "Custom"},
	}

	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(Daily()); err != nil {
		t.Errorf("daily should be valid: %v", err)
	}
	if err := Validate(Custom(0)); err == nil {
		t.Error("expected error for zero custom interval")
	}
	if err := Validate(Weekly()); err == nil {
		t.Error("expected error for weekly rule without days")
	}
	if err := Validate(Recurrence{Kind: "hourly"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestNext(t *testing.T) {
	// Friday
	after := time.Date(2026, 10, 23, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rule Recurrence
		at   string
		want time.Time
	}{
		{"daily later today", Daily(), "12:30", time.Date(2026, 10, 23, 12, 30, 0, 0, time.UTC)},
		{"daily tomorrow", Daily(), "07:00", time.Date(2026, 10, 24, 7, 0, 0, 0, time.UTC)},
		{"once", Once(), "07:00", time.Date(2026, 10, 24, 7, 0, 0, 0, time.UTC)},
		{"weekdays skips weekend", Weekdays(), "07:00", time.Date(2026, 10, 26, 7, 0, 0, 0, time.UTC)},
		{"weekends", Weekends(), "07:00", time.Date(2026, 10, 24, 7, 0, 0, 0, time.UTC)},
		{"weekly wednesday", Weekly(3), "09:00", time.Date(2026, 10, 28, 9, 0, 0, 0, time.UTC)},
		{"custom interval", Custom(45), "09:00", time.Date(2026, 10, 23, 10, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Next(tt.rule, tt.at, after)
			if !ok {
				t.Fatal("expected a next occurrence")
			}
			if !got.Equal(tt.want) {
				t.Errorf("Next = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextNever(t *testing.T) {
	after := time.Date(2026, 10, 23, 10, 0, 0, 0, time.UTC)

	if _, ok := Next(Weekly(), "09:00", after); ok {
		t.Error("weekly rule without days should never fire")
	}
	if _, ok := Next(Custom(0), "09:00", after); ok {
		t.Error("zero interval should never fire")
	}
	if _, ok := Next(Daily(), "25:00", after); ok {
		t.Error("invalid time should never fire")
	}
}

// Package recurrence converts schedule repeat rules between the numeric form
// used inside chime and the wire form spoken by the backend service.
//
// Every function here is total: malformed input produces a defined value,
// never an error, because labels are computed on every render
package recurrence

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is the recurrence variant tag
type Kind string

const (
	KindOnce     Kind = "once"
	KindDaily    Kind = "daily"
	KindWeekdays Kind = "weekdays"
	KindWeekends Kind = "weekends"
	KindCustom   Kind = "custom"
	KindWeekly   Kind = "weekly"
)

// WeekdayLabels maps weekday index (Sunday=0) to its three-letter name
var WeekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Recurrence is the internal repeat rule. IntervalMinutes is only meaningful
// for KindCustom and Days (0-6, Sunday=0) only for KindWeekly
type Recurrence struct {
	Kind            Kind  `json:"type"`
	IntervalMinutes int   `json:"intervalMinutes,omitempty"`
	Days            []int `json:"days,omitempty"`
}

func Once() Recurrence     { return Recurrence{Kind: KindOnce} }
func Daily() Recurrence    { return Recurrence{Kind: KindDaily} }
func Weekdays() Recurrence { return Recurrence{Kind: KindWeekdays} }
func Weekends() Recurrence { return Recurrence{Kind: KindWeekends} }

func Custom(intervalMinutes int) Recurrence {
	return Recurrence{Kind: KindCustom, IntervalMinutes: intervalMinutes}
}

func Weekly(days ...int) Recurrence {
	if days == nil {
		days = []int{}
	}
	return Recurrence{Kind: KindWeekly, Days: days}
}

// wrapDay reduces any integer into 0-6
func wrapDay(n int) int {
	return ((n % 7) + 7) % 7
}

// ToWire maps r to its wire form. Weekly days are reduced mod 7 and sent as
// names; nothing is dropped in this direction
func ToWire(r Recurrence) Wire {
	switch r.Kind {
	case KindCustom:
		return Wire{Type: string(KindCustom), IntervalMinutes: r.IntervalMinutes}
	case KindWeekly:
		days := make([]WireDay, 0, len(r.Days))
		for _, d := range r.Days {
			days = append(days, DayName(WeekdayLabels[wrapDay(d)]))
		}
		return Wire{Type: string(KindWeekly), Days: days}
	case KindOnce, KindDaily, KindWeekdays, KindWeekends:
		return Wire{Type: string(r.Kind)}
	default:
		return Wire{Type: string(KindOnce)}
	}
}

// FromWire maps a wire rule to the internal form. Unknown tags become once;
// unrecognized weekday tokens are dropped
func FromWire(w Wire) Recurrence {
	switch Kind(strings.ToLower(strings.TrimSpace(w.Type))) {
	case KindOnce:
		return Once()
	case KindDaily:
		return Daily()
	case KindWeekdays:
		return Weekdays()
	case KindWeekends:
		return Weekends()
	case KindCustom:
		return Custom(w.IntervalMinutes)
	case KindWeekly:
		days := make([]int, 0, len(w.Days))
		for _, token := range w.Days {
			idx, ok := token.Index()
			if !ok || slices.Contains(days, idx) {
				continue
			}
			days = append(days, idx)
		}
		return Weekly(days...)
	default:
		return Once()
	}
}

// Format returns the human label for r
func Format(r Recurrence) string {
	switch r.Kind {
	case KindOnce:
		return "Once"
	case KindDaily:
		return "Daily"
	case KindWeekdays:
		return "Weekdays"
	case KindWeekends:
		return "Weekends"
	case KindCustom:
		return fmt.Sprintf("Every %dm", r.IntervalMinutes)
	case KindWeekly:
		if len(r.Days) == 0 {
			return "Weekly"
		}
		var seen [7]bool
		for _, d := range r.Days {
			seen[wrapDay(d)] = true
		}
		labels := make([]string, 0, 7)
		for i, ok := range seen {
			if ok {
				labels = append(labels, WeekdayLabels[i])
			}
		}
		return strings.Join(labels, ", ")
	default:
		return "Custom"
	}
}

func (r Recurrence) String() string {
	return Format(r)
}

// Normalize reduces weekly days mod 7, keeping the first occurrence of each
// day in order, and strips payload that does not belong to r's kind
func Normalize(r Recurrence) Recurrence {
	switch r.Kind {
	case KindCustom:
		return Custom(r.IntervalMinutes)
	case KindWeekly:
		days := make([]int, 0, len(r.Days))
		for _, d := range r.Days {
			if d = wrapDay(d); !slices.Contains(days, d) {
				days = append(days, d)
			}
		}
		return Weekly(days...)
	default:
		return Recurrence{Kind: r.Kind}
	}
}

// Equal compares two rules after normalization; nil and empty day lists are equal
func (r Recurrence) Equal(o Recurrence) bool {
	a, b := Normalize(r), Normalize(o)
	return a.Kind == b.Kind && a.IntervalMinutes == b.IntervalMinutes && slices.Equal(a.Days, b.Days)
}

// Validate reports rules that the backend refuses to store
func Validate(r Recurrence) error {
	switch r.Kind {
	case KindOnce, KindDaily, KindWeekdays, KindWeekends:
		return nil
	case KindCustom:
		if r.IntervalMinutes < 1 {
			return fmt.Errorf("custom interval must be at least 1 minute")
		}
		return nil
	case KindWeekly:
		if len(r.Days) == 0 {
			return fmt.Errorf("weekdays must be specified for weekly recurrence")
		}
		return nil
	default:
		return fmt.Errorf("unknown recurrence type: %q", r.Kind)
	}
}

package recurrence

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/julianstephens/chime/internal/constants"
)

var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Next returns the first time at or after `after` at which a rule firing at
// hhmm (HH:MM, in after's location) is due. ok is false when the rule can
// never fire (weekly with no days, non-positive custom interval) or hhmm is invalid
func Next(r Recurrence, hhmm string, after time.Time) (time.Time, bool) {
	clock, err := time.Parse(constants.TimeFormat, hhmm)
	if err != nil {
		return time.Time{}, false
	}
	start := time.Date(after.Year(), after.Month(), after.Day(), clock.Hour(), clock.Minute(), 0, 0, after.Location())

	opt := rrule.ROption{Freq: rrule.DAILY, Dtstart: start}
	switch r.Kind {
	case KindWeekdays:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}
	case KindWeekends:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{rrule.SA, rrule.SU}
	case KindWeekly:
		if len(r.Days) == 0 {
			return time.Time{}, false
		}
		opt.Freq = rrule.WEEKLY
		for _, d := range Normalize(r).Days {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
		}
	case KindCustom:
		if r.IntervalMinutes < 1 {
			return time.Time{}, false
		}
		opt.Freq = rrule.MINUTELY
		opt.Interval = r.IntervalMinutes
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return time.Time{}, false
	}
	next := rule.After(after, true)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

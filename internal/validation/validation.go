// Package validation detects schedules that collide or duplicate each other
package validation

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/julianstephens/chime/internal/models"
	"github.com/julianstephens/chime/internal/recurrence"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateSchedule ConflictType = "duplicate_schedule"
	ConflictSameMinute        ConflictType = "same_minute"
	ConflictInvalidTime       ConflictType = "invalid_time"
	ConflictInvalidVolume     ConflictType = "invalid_volume"
	ConflictInvalidRepeat     ConflictType = "invalid_repeat"
)

// Conflict represents a detected problem in the schedule list
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // schedule names involved
	ScheduleIDs []string // for auto-fixing
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// FixAction represents an action taken during auto-fix
type FixAction struct {
	Action         string
	SourceConflict Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Validator validates schedules for conflicts
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// duplicateKey identifies schedules that would play the same file at the same moments
func duplicateKey(sch models.Schedule) string {
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(sch.Name)),
		sch.AudioFilePath,
		sch.ScheduledTime,
		recurrence.Format(recurrence.Normalize(sch.Repeat)),
	}, "\x00")
}

// ValidateSchedules checks field values, duplicates and enabled schedules
// that fire in the same minute on a shared day
func (v *Validator) ValidateSchedules(schedules []models.Schedule) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	for _, sch := range schedules {
		if err := models.ValidateTime(sch.ScheduledTime); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidTime,
				Description: fmt.Sprintf("Schedule \"%s\" has invalid time: %s", sch.Name, sch.ScheduledTime),
				Items:       []string{sch.Name},
				ScheduleIDs: []string{sch.ID},
			})
		}
		if err := models.ValidateVolume(sch.Volume); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidVolume,
				Description: fmt.Sprintf("Schedule \"%s\" has invalid volume: %d", sch.Name, sch.Volume),
				Items:       []string{sch.Name},
				ScheduleIDs: []string{sch.ID},
			})
		}
		if err := recurrence.Validate(sch.Repeat); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidRepeat,
				Description: fmt.Sprintf("Schedule \"%s\": %v", sch.Name, err),
				Items:       []string{sch.Name},
				ScheduleIDs: []string{sch.ID},
			})
		}
	}

	// Duplicates, in first-seen order so reports are stable
	groups := make(map[string][]models.Schedule)
	var order []string
	for _, sch := range schedules {
		key := duplicateKey(sch)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], sch)
	}
	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		ids := make([]string, len(group))
		for i, sch := range group {
			ids[i] = sch.ID
		}
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictDuplicateSchedule,
			Description: fmt.Sprintf("Duplicate schedule: \"%s\" at %s (IDs: %v)", group[0].Name, group[0].ScheduledTime, ids),
			Items:       []string{group[0].Name},
			ScheduleIDs: ids,
		})
	}

	// Same-minute collisions between enabled schedules. Duplicates are
	// already reported above
	var enabled []models.Schedule
	for _, sch := range schedules {
		if sch.Enabled {
			enabled = append(enabled, sch)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].ScheduledTime < enabled[j].ScheduledTime
	})
	for i := 0; i < len(enabled); i++ {
		for j := i + 1; j < len(enabled) && enabled[j].ScheduledTime == enabled[i].ScheduledTime; j++ {
			s1, s2 := enabled[i], enabled[j]
			if duplicateKey(s1) == duplicateKey(s2) {
				continue
			}
			if !recurrenceOverlaps(s1.Repeat, s2.Repeat) {
				continue
			}
			result.Conflicts = append(result.Conflicts, Conflict{
				Type: ConflictSameMinute,
				Description: fmt.Sprintf("Schedules play at the same time: \"%s\" and \"%s\" (%s)",
					s1.Name, s2.Name, models.FormatTimeLabel(s1.ScheduledTime)),
				Items:       []string{s1.Name, s2.Name},
				ScheduleIDs: []string{s1.ID, s2.ID},
			})
		}
	}

	return result
}

// weekdaysOf returns the weekdays a rule fires on, or nil when it is not
// tied to particular days
func weekdaysOf(r recurrence.Recurrence) []int {
	switch r.Kind {
	case recurrence.KindDaily:
		return []int{0, 1, 2, 3, 4, 5, 6}
	case recurrence.KindWeekdays:
		return []int{1, 2, 3, 4, 5}
	case recurrence.KindWeekends:
		return []int{0, 6}
	case recurrence.KindWeekly:
		return recurrence.Normalize(r).Days
	default:
		return nil
	}
}

// recurrenceOverlaps checks if two rules can fire on the same day. Once and
// custom rules are assumed to overlap with everything
func recurrenceOverlaps(r1, r2 recurrence.Recurrence) bool {
	d1, d2 := weekdaysOf(r1), weekdaysOf(r2)
	if d1 == nil || d2 == nil {
		return true
	}
	for _, d := range d1 {
		if slices.Contains(d2, d) {
			return true
		}
	}
	return false
}

// AutoFixDuplicateSchedules keeps the oldest schedule of each duplicate group
// and deletes the rest. Returns a slice of FixActions describing what was fixed
func AutoFixDuplicateSchedules(conflicts []Conflict, schedules []models.Schedule, deleteFunc func(id string) error) []FixAction {
	actions := []FixAction{}

	byID := make(map[string]models.Schedule, len(schedules))
	for _, sch := range schedules {
		byID[sch.ID] = sch
	}

	for _, conflict := range conflicts {
		if conflict.Type != ConflictDuplicateSchedule || len(conflict.ScheduleIDs) <= 1 {
			continue
		}

		var group []models.Schedule
		for _, id := range conflict.ScheduleIDs {
			if sch, ok := byID[id]; ok {
				group = append(group, sch)
			}
		}
		if len(group) <= 1 {
			continue
		}

		// oldest first; timestamps sort lexically, ids break ties
		sort.Slice(group, func(i, j int) bool {
			if group[i].CreatedAt != group[j].CreatedAt {
				return group[i].CreatedAt < group[j].CreatedAt
			}
			return group[i].ID < group[j].ID
		})

		keep := group[0]
		var deletedIDs, failedIDs []string
		for _, sch := range group[1:] {
			if err := deleteFunc(sch.ID); err == nil {
				deletedIDs = append(deletedIDs, sch.ID)
			} else {
				failedIDs = append(failedIDs, sch.ID)
			}
		}

		if len(deletedIDs) > 0 {
			msg := fmt.Sprintf("Removed %d duplicate schedule(s) named \"%s\" (kept ID: %s, removed: %v)",
				len(deletedIDs), keep.Name, keep.ID, deletedIDs)
			if len(failedIDs) > 0 {
				msg += fmt.Sprintf(" (failed to remove: %v)", failedIDs)
			}
			actions = append(actions, FixAction{Action: msg, SourceConflict: conflict})
		} else if len(failedIDs) > 0 {
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Failed to remove duplicates for \"%s\": %v", keep.Name, failedIDs),
				SourceConflict: conflict,
			})
		}
	}

	return actions
}

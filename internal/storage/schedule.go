package storage

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/julianstephens/chime/internal/models"
	"github.com/julianstephens/chime/internal/recurrence"
)

// ScheduleRow is a schedule as stored. RepeatType holds the wire recurrence
// JSON and RepeatDays the weekday indices of a weekly rule
type ScheduleRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	AudioFilePath string         `db:"audio_file_path"`
	ScheduledTime string         `db:"scheduled_time"`
	Enabled       bool           `db:"enabled"`
	RepeatType    string         `db:"repeat_type"`
	RepeatDays    sql.NullString `db:"repeat_days"`
	Volume        int            `db:"volume"`
	CreatedAt     string         `db:"created_at"`
	UpdatedAt     string         `db:"updated_at"`
	LastRunAt     sql.NullString `db:"last_run_at"`
}

// SetRepeat stores r in both repeat columns
func (r *ScheduleRow) SetRepeat(rule recurrence.Recurrence) error {
	data, err := json.Marshal(recurrence.ToWire(rule))
	if err != nil {
		return err
	}
	r.RepeatType = string(data)
	r.RepeatDays = sql.NullString{}

	if rule.Kind == recurrence.KindWeekly {
		days, err := json.Marshal(recurrence.Normalize(rule).Days)
		if err != nil {
			return err
		}
		r.RepeatDays = sql.NullString{String: string(days), Valid: true}
	}
	return nil
}

// Repeat decodes the stored recurrence. A bare tag in repeat_type, or a
// weekly rule without days, takes its days from repeat_days
func (r ScheduleRow) Repeat() recurrence.Recurrence {
	var w recurrence.Wire
	if err := json.Unmarshal([]byte(r.RepeatType), &w); err != nil {
		w = recurrence.Wire{Type: strings.Trim(r.RepeatType, `" `)}
	}
	rule := recurrence.FromWire(w)
	if rule.Kind == recurrence.KindWeekly && len(rule.Days) == 0 {
		rule = recurrence.Weekly(r.repeatDays()...)
	}
	return rule
}

func (r ScheduleRow) repeatDays() []int {
	if !r.RepeatDays.Valid {
		return nil
	}
	var days []int
	if err := json.Unmarshal([]byte(r.RepeatDays.String), &days); err != nil {
		return nil
	}
	return recurrence.Normalize(recurrence.Weekly(days...)).Days
}

type scheduleRecord struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	AudioFilePath string          `json:"audio_file_path"`
	ScheduledTime string          `json:"scheduled_time"`
	Enabled       bool            `json:"enabled"`
	RepeatType    recurrence.Wire `json:"repeat_type"`
	Volume        int             `json:"volume"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
	LastRunAt     *string         `json:"last_run_at"`
}

// Record returns the row in the backend's wire shape, decoded the same way a
// client decodes a daemon response
func (r ScheduleRow) Record() (models.Record, error) {
	out := scheduleRecord{
		ID:            r.ID,
		Name:          r.Name,
		AudioFilePath: r.AudioFilePath,
		ScheduledTime: r.ScheduledTime,
		Enabled:       r.Enabled,
		RepeatType:    recurrence.ToWire(r.Repeat()),
		Volume:        r.Volume,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.LastRunAt.Valid {
		out.LastRunAt = &r.LastRunAt.String
	}
	return models.RecordFromWire(out)
}

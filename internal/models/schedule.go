package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/chime/internal/constants"
	"github.com/julianstephens/chime/internal/recurrence"
)

// Schedule is one audio reminder rule
type Schedule struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	AudioFilePath string                `json:"audioFilePath"`
	ScheduledTime string                `json:"scheduledTime"` // HH:MM, 24-hour, no timezone
	Enabled       bool                  `json:"enabled"`
	Repeat        recurrence.Recurrence `json:"repeatType"`
	Volume        int                   `json:"volume"`
	CreatedAt     string                `json:"createdAt"`
	UpdatedAt     string                `json:"updatedAt"`
}

// ScheduleInput holds the fields needed to create a schedule
type ScheduleInput struct {
	Name          string
	AudioFilePath string
	ScheduledTime string
	Enabled       bool
	Repeat        recurrence.Recurrence
	Volume        int
}

// SchedulePatch is a partial update; nil fields are left alone by the backend
type SchedulePatch struct {
	Name          *string
	AudioFilePath *string
	ScheduledTime *string
	Enabled       *bool
	Repeat        *recurrence.Recurrence
	Volume        *int
}

// IsEmpty reports whether the patch changes nothing
func (p SchedulePatch) IsEmpty() bool {
	return p.Name == nil && p.AudioFilePath == nil && p.ScheduledTime == nil &&
		p.Enabled == nil && p.Repeat == nil && p.Volume == nil
}

// WireScheduleInput is the backend's create payload
type WireScheduleInput struct {
	Name          string          `json:"name"`
	AudioFilePath string          `json:"audio_file_path"`
	ScheduledTime string          `json:"scheduled_time"`
	Enabled       bool            `json:"enabled"`
	RepeatType    recurrence.Wire `json:"repeat_type"`
	Volume        int             `json:"volume"`
}

// WireSchedulePatch is the backend's partial update payload. The backend
// merges it field by field, so absent fields must be omitted rather than sent as null
type WireSchedulePatch struct {
	Name          *string          `json:"name,omitempty"`
	AudioFilePath *string          `json:"audio_file_path,omitempty"`
	ScheduledTime *string          `json:"scheduled_time,omitempty"`
	Enabled       *bool            `json:"enabled,omitempty"`
	RepeatType    *recurrence.Wire `json:"repeat_type,omitempty"`
	Volume        *int             `json:"volume,omitempty"`
}

// ScheduleFromRecord maps a backend record to a Schedule. Each field prefers
// the wire name and falls back to the internal name
func ScheduleFromRecord(rec Record) Schedule {
	return Schedule{
		ID:            rec.Text("id"),
		Name:          rec.Text("name"),
		AudioFilePath: rec.Text("audio_file_path", "audioFilePath"),
		ScheduledTime: rec.Text("scheduled_time", "scheduledTime"),
		Enabled:       rec.Bool("enabled"),
		Repeat:        recurrence.FromWire(repeatFromRecord(rec)),
		Volume:        rec.Int("volume"),
		CreatedAt:     rec.Text("created_at", "createdAt"),
		UpdatedAt:     rec.Text("updated_at", "updatedAt"),
	}
}

func repeatFromRecord(rec Record) recurrence.Wire {
	var w recurrence.Wire
	v, ok := rec.Value("repeat_type", "repeatType")
	if !ok {
		return w
	}

	var data []byte
	if s, isString := v.(string); isString {
		// some services pass the stored JSON column through verbatim
		data = []byte(s)
	} else {
		encoded, err := json.Marshal(v)
		if err != nil {
			return w
		}
		data = encoded
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return recurrence.Wire{}
	}
	return w
}

// ToCreatePayload maps a create input to the wire payload
func ToCreatePayload(in ScheduleInput) WireScheduleInput {
	return WireScheduleInput{
		Name:          in.Name,
		AudioFilePath: in.AudioFilePath,
		ScheduledTime: in.ScheduledTime,
		Enabled:       in.Enabled,
		RepeatType:    recurrence.ToWire(in.Repeat),
		Volume:        in.Volume,
	}
}

// ToUpdatePayload maps only the fields present in p
func ToUpdatePayload(p SchedulePatch) WireSchedulePatch {
	out := WireSchedulePatch{
		Name:          p.Name,
		AudioFilePath: p.AudioFilePath,
		ScheduledTime: p.ScheduledTime,
		Enabled:       p.Enabled,
		Volume:        p.Volume,
	}
	if p.Repeat != nil {
		w := recurrence.ToWire(*p.Repeat)
		out.RepeatType = &w
	}
	return out
}

// ValidateTime checks an HH:MM 24-hour wall-clock time
func ValidateTime(hhmm string) error {
	if len(hhmm) != len(constants.TimeFormat) {
		return fmt.Errorf("invalid time format (expected HH:MM): %q", hhmm)
	}
	if _, err := time.Parse(constants.TimeFormat, hhmm); err != nil {
		return fmt.Errorf("invalid time format (expected HH:MM): %w", err)
	}
	return nil
}

// ValidateVolume checks that v lies in [0,100]
func ValidateVolume(v int) error {
	if v < constants.MinVolume || v > constants.MaxVolume {
		return fmt.Errorf("volume must be between %d and %d", constants.MinVolume, constants.MaxVolume)
	}
	return nil
}

// Validate checks a create input the way the backend does before storing it
func (in ScheduleInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("schedule name cannot be empty")
	}
	if strings.TrimSpace(in.AudioFilePath) == "" {
		return fmt.Errorf("audio file path cannot be empty")
	}
	if err := ValidateTime(in.ScheduledTime); err != nil {
		return err
	}
	if err := ValidateVolume(in.Volume); err != nil {
		return err
	}
	return recurrence.Validate(in.Repeat)
}

// FormatTimeLabel renders "19:05" as "7:05 PM". Unparseable values are returned unchanged
func FormatTimeLabel(hhmm string) string {
	t, err := time.Parse(constants.TimeFormat, hhmm)
	if err != nil {
		return hhmm
	}
	return t.Format("3:04 PM")
}

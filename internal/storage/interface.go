package storage

import "errors"

// ErrNotFound is returned when a schedule id does not exist
var ErrNotFound = errors.New("not found")

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Schedules
	AddSchedule(ScheduleRow) error
	GetSchedule(id string) (ScheduleRow, error)
	GetAllSchedules() ([]ScheduleRow, error)
	UpdateSchedule(ScheduleRow) error
	DeleteSchedule(id string) error

	// Settings are stored as key/value pairs
	GetSettings() (map[string]string, error)
	SaveSetting(key, value string) error

	// Utils
	GetConfigPath() string
}

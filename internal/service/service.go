// Package service defines the backend operations the stores depend on
package service

import (
	"context"
	"errors"

	"github.com/julianstephens/chime/internal/audio"
	"github.com/julianstephens/chime/internal/models"
)

var (
	// ErrNotFound is returned when a schedule id does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when the backend rejects a payload
	ErrInvalidInput = errors.New("invalid input")
)

// Service is the backend the stores talk to. Every call may fail; callers
// do not retry
type Service interface {
	ListSchedules(ctx context.Context) ([]models.Record, error)
	CreateSchedule(ctx context.Context, in models.WireScheduleInput) (models.Record, error)
	UpdateSchedule(ctx context.Context, id string, patch models.WireSchedulePatch) (models.Record, error)
	DeleteSchedule(ctx context.Context, id string) error
	ToggleScheduleEnabled(ctx context.Context, id string, enabled bool) (models.Record, error)

	PlayAudio(ctx context.Context, path string, volume int) error
	StopAudio(ctx context.Context) error

	GetSettings(ctx context.Context) (models.WireSettings, error)
	UpdateSettings(ctx context.Context, patch models.WireSettingsPatch) (models.WireSettings, error)
	SetLaunchAtLogin(ctx context.Context, enabled bool) error
}

// StatusReporter is implemented by backends that can report what is playing
type StatusReporter interface {
	AudioStatus(ctx context.Context) (audio.Status, error)
}

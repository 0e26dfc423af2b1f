// Package local implements service.Service in-process over a storage
// provider, an audio player and an autostart launcher
package local

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/chime/internal/audio"
	"github.com/julianstephens/chime/internal/autostart"
	"github.com/julianstephens/chime/internal/constants"
	"github.com/julianstephens/chime/internal/logger"
	"github.com/julianstephens/chime/internal/models"
	"github.com/julianstephens/chime/internal/recurrence"
	"github.com/julianstephens/chime/internal/service"
	"github.com/julianstephens/chime/internal/storage"
)

// Options configures a Service
type Options struct {
	// CheckFiles validates that audio files exist and have a supported type
	CheckFiles bool
	// Now defaults to time.Now
	Now func() time.Time
}

// Service is the in-process backend
type Service struct {
	store    storage.Provider
	player   audio.Player
	launcher autostart.Launcher
	opts     Options

	// serializes read-modify-write of stored rows
	mu sync.Mutex
}

var (
	_ service.Service        = (*Service)(nil)
	_ service.StatusReporter = (*Service)(nil)
)

func New(store storage.Provider, player audio.Player, launcher autostart.Launcher, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, player: player, launcher: launcher, opts: opts}
}

func (s *Service) now() string {
	return s.opts.Now().Format(constants.TimestampFormat)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
}

func notFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %v", service.ErrNotFound, err)
	}
	return err
}

func (s *Service) checkFile(path string) error {
	if !s.opts.CheckFiles {
		return nil
	}
	if err := audio.ValidateFile(path); err != nil {
		return invalid(err)
	}
	return nil
}

func (s *Service) ListSchedules(ctx context.Context) ([]models.Record, error) {
	rows, err := s.store.GetAllSchedules()
	if err != nil {
		return nil, err
	}
	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.Record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Service) CreateSchedule(ctx context.Context, in models.WireScheduleInput) (models.Record, error) {
	input := models.ScheduleInput{
		Name:          strings.TrimSpace(in.Name),
		AudioFilePath: in.AudioFilePath,
		ScheduledTime: in.ScheduledTime,
		Enabled:       in.Enabled,
		Repeat:        recurrence.FromWire(in.RepeatType),
		Volume:        in.Volume,
	}
	if err := input.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := s.checkFile(input.AudioFilePath); err != nil {
		return nil, err
	}

	now := s.now()
	row := storage.ScheduleRow{
		ID:            uuid.New().String(),
		Name:          input.Name,
		AudioFilePath: input.AudioFilePath,
		ScheduledTime: input.ScheduledTime,
		Enabled:       input.Enabled,
		Volume:        input.Volume,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := row.SetRepeat(input.Repeat); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.AddSchedule(row); err != nil {
		return nil, err
	}
	logger.Info("Schedule created", "id", row.ID, "name", row.Name, "time", row.ScheduledTime)
	return row.Record()
}

// UpdateSchedule merges the present fields of patch into the stored schedule
func (s *Service) UpdateSchedule(ctx context.Context, id string, patch models.WireSchedulePatch) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.store.GetSchedule(id)
	if err != nil {
		return nil, notFound(err)
	}

	input := models.ScheduleInput{
		Name:          row.Name,
		AudioFilePath: row.AudioFilePath,
		ScheduledTime: row.ScheduledTime,
		Enabled:       row.Enabled,
		Repeat:        row.Repeat(),
		Volume:        row.Volume,
	}
	if patch.Name != nil {
		input.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.AudioFilePath != nil {
		input.AudioFilePath = *patch.AudioFilePath
	}
	if patch.ScheduledTime != nil {
		input.ScheduledTime = *patch.ScheduledTime
	}
	if patch.Enabled != nil {
		input.Enabled = *patch.Enabled
	}
	if patch.RepeatType != nil {
		input.Repeat = recurrence.FromWire(*patch.RepeatType)
	}
	if patch.Volume != nil {
		input.Volume = *patch.Volume
	}

	if err := input.Validate(); err != nil {
		return nil, invalid(err)
	}
	if patch.AudioFilePath != nil {
		if err := s.checkFile(input.AudioFilePath); err != nil {
			return nil, err
		}
	}

	row.Name = input.Name
	row.AudioFilePath = input.AudioFilePath
	row.ScheduledTime = input.ScheduledTime
	row.Enabled = input.Enabled
	row.Volume = input.Volume
	row.UpdatedAt = s.now()
	if err := row.SetRepeat(input.Repeat); err != nil {
		return nil, err
	}

	if err := s.store.UpdateSchedule(row); err != nil {
		return nil, notFound(err)
	}
	logger.Info("Schedule updated", "id", id)
	return row.Record()
}

func (s *Service) DeleteSchedule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteSchedule(id); err != nil {
		return notFound(err)
	}
	logger.Info("Schedule deleted", "id", id)
	return nil
}

func (s *Service) ToggleScheduleEnabled(ctx context.Context, id string, enabled bool) (models.Record, error) {
	return s.UpdateSchedule(ctx, id, models.WireSchedulePatch{Enabled: &enabled})
}

func (s *Service) PlayAudio(ctx context.Context, path string, volume int) error {
	if err := models.ValidateVolume(volume); err != nil {
		return invalid(err)
	}
	if err := audio.ValidateFile(path); err != nil {
		return invalid(err)
	}
	if err := s.player.Play(ctx, path, volume); err != nil {
		return fmt.Errorf("failed to play audio: %w", err)
	}
	return nil
}

func (s *Service) StopAudio(ctx context.Context) error {
	if err := s.player.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop audio: %w", err)
	}
	return nil
}

func (s *Service) AudioStatus(ctx context.Context) (audio.Status, error) {
	return s.player.Status(), nil
}

func (s *Service) GetSettings(ctx context.Context) (models.WireSettings, error) {
	data, err := s.store.GetSettings()
	if err != nil {
		return models.WireSettings{}, err
	}
	return models.WireSettingsFromMap(data), nil
}

// UpdateSettings stores only the keys present in patch
func (s *Service) UpdateSettings(ctx context.Context, patch models.WireSettingsPatch) (models.WireSettings, error) {
	if patch.Theme != nil {
		if _, ok := models.ParseTheme(*patch.Theme); !ok {
			return models.WireSettings{}, invalid(fmt.Errorf("unknown theme %q", *patch.Theme))
		}
	}
	if patch.DefaultVolume != nil {
		if err := models.ValidateVolume(*patch.DefaultVolume); err != nil {
			return models.WireSettings{}, invalid(err)
		}
	}

	s.mu.Lock()
	for key, value := range models.PatchToMap(patch) {
		if err := s.store.SaveSetting(key, value); err != nil {
			s.mu.Unlock()
			return models.WireSettings{}, err
		}
	}
	s.mu.Unlock()

	return s.GetSettings(ctx)
}

// SetLaunchAtLogin registers with the OS, then records the flag
func (s *Service) SetLaunchAtLogin(ctx context.Context, enabled bool) error {
	if err := s.launcher.SetEnabled(enabled); err != nil {
		return fmt.Errorf("failed to set launch at login: %w", err)
	}

	return s.store.SaveSetting(constants.SettingLaunchAtLogin, strconv.FormatBool(enabled))
}

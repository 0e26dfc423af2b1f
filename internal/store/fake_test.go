package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/julianstephens/chime/internal/models"
)

var errBackend = errors.New("backend unavailable")

// fakeService records every call and returns canned results
type fakeService struct {
	mu    sync.Mutex
	calls []string

	records  []models.Record
	settings models.WireSettings

	// lastUpdate holds the payload of the most recent UpdateSchedule call
	lastUpdate  models.WireSchedulePatch
	lastSetting models.WireSettingsPatch

	failList, failCreate, failUpdate, failDelete, failToggle bool
	failPlay, failStop                                       bool
	panicStop                                                bool
	failGetSettings, failUpdateSettings, failLaunch          bool

	// onGetSettings runs inside GetSettings before it returns
	onGetSettings func()
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) ListSchedules(ctx context.Context) ([]models.Record, error) {
	f.record("list")
	if f.failList {
		return nil, errBackend
	}
	return f.records, nil
}

func (f *fakeService) CreateSchedule(ctx context.Context, in models.WireScheduleInput) (models.Record, error) {
	f.record("create")
	if f.failCreate {
		return nil, errBackend
	}
	return models.RecordFromWire(map[string]any{
		"id":              "new-1",
		"name":            in.Name,
		"audio_file_path": in.AudioFilePath,
		"scheduled_time":  in.ScheduledTime,
		"enabled":         in.Enabled,
		"repeat_type":     in.RepeatType,
		"volume":          in.Volume,
		"created_at":      "2026-10-18T09:00:00Z",
		"updated_at":      "2026-10-18T09:00:00Z",
	})
}

func (f *fakeService) UpdateSchedule(ctx context.Context, id string, patch models.WireSchedulePatch) (models.Record, error) {
	f.record("update:" + id)
	f.mu.Lock()
	f.lastUpdate = patch
	f.mu.Unlock()
	if f.failUpdate {
		return nil, errBackend
	}
	rec := models.Record{"id": id, "name": "updated", "enabled": true, "volume": float64(10)}
	if patch.Volume != nil {
		rec["volume"] = float64(*patch.Volume)
	}
	return rec, nil
}

func (f *fakeService) DeleteSchedule(ctx context.Context, id string) error {
	f.record("delete:" + id)
	if f.failDelete {
		return errBackend
	}
	return nil
}

func (f *fakeService) ToggleScheduleEnabled(ctx context.Context, id string, enabled bool) (models.Record, error) {
	f.record(fmt.Sprintf("toggle:%s:%t", id, enabled))
	if f.failToggle {
		return nil, errBackend
	}
	return models.Record{"id": id, "name": "canonical", "enabled": enabled, "updated_at": "2026-10-18T10:00:00Z"}, nil
}

func (f *fakeService) PlayAudio(ctx context.Context, path string, volume int) error {
	f.record("play:" + path)
	if f.failPlay {
		return errBackend
	}
	return nil
}

func (f *fakeService) StopAudio(ctx context.Context) error {
	f.record("stop")
	if f.panicStop {
		panic("player crashed")
	}
	if f.failStop {
		return errBackend
	}
	return nil
}

func (f *fakeService) GetSettings(ctx context.Context) (models.WireSettings, error) {
	f.record("get_settings")
	if f.onGetSettings != nil {
		f.onGetSettings()
	}
	if f.failGetSettings {
		return models.WireSettings{}, errBackend
	}
	return f.settings, nil
}

func (f *fakeService) UpdateSettings(ctx context.Context, patch models.WireSettingsPatch) (models.WireSettings, error) {
	f.record("update_settings")
	f.mu.Lock()
	f.lastSetting = patch
	f.mu.Unlock()
	if f.failUpdateSettings {
		return models.WireSettings{}, errBackend
	}

	// echo the stored settings with the patch applied, as the backend would
	out := f.settings
	if patch.Theme != nil {
		out.Theme = *patch.Theme
	}
	if patch.DefaultVolume != nil {
		out.DefaultVolume = *patch.DefaultVolume
	}
	if patch.LaunchAtLogin != nil {
		out.LaunchAtLogin = *patch.LaunchAtLogin
	}
	if patch.MinimizeToTray != nil {
		out.MinimizeToTray = *patch.MinimizeToTray
	}
	return out, nil
}

func (f *fakeService) SetLaunchAtLogin(ctx context.Context, enabled bool) error {
	f.record(fmt.Sprintf("launch:%t", enabled))
	if f.failLaunch {
		return errBackend
	}
	return nil
}

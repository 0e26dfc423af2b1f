package store

import (
	"context"
	"sync"

	"github.com/julianstephens/chime/internal/errors"
	"github.com/julianstephens/chime/internal/logger"
	"github.com/julianstephens/chime/internal/models"
	"github.com/julianstephens/chime/internal/service"
)

// SettingsState is a snapshot of a SettingsStore
type SettingsState struct {
	Settings  models.Settings
	IsLoading bool
	HasLoaded bool
	Error     string
}

// SettingsStore keeps the application settings
type SettingsStore struct {
	svc  service.Service
	subs subscribers[SettingsState]

	mu    sync.Mutex
	state SettingsState
}

func NewSettingsStore(svc service.Service) *SettingsStore {
	return &SettingsStore{
		svc:   svc,
		state: SettingsState{Settings: models.DefaultSettings()},
	}
}

func (s *SettingsStore) Snapshot() SettingsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SettingsStore) Subscribe(fn func(SettingsState)) func() {
	return s.subs.add(fn)
}

func (s *SettingsStore) set(mutate func(*SettingsState)) {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.state
	s.mu.Unlock()
	s.subs.notify(snapshot)
}

func (s *SettingsStore) fail(f *errors.Failure, mutate func(*SettingsState)) error {
	logger.Error(f.Message, "op", f.Op, "kind", f.Kind, "error", f.Err)
	s.set(func(st *SettingsState) {
		if mutate != nil {
			mutate(st)
		}
		st.Error = f.Message
	})
	return f
}

// Fetch replaces the settings with the backend's. HasLoaded is set on the
// first success and never cleared
func (s *SettingsStore) Fetch(ctx context.Context) error {
	s.set(func(st *SettingsState) {
		st.IsLoading = true
		st.Error = ""
	})

	w, err := s.svc.GetSettings(ctx)
	if err != nil {
		return s.fail(errors.Load("settings.fetch", "Failed to load settings", err), func(st *SettingsState) {
			st.IsLoading = false
		})
	}

	settings := models.SettingsFromWire(w)
	s.set(func(st *SettingsState) {
		st.Settings = settings
		st.IsLoading = false
		st.HasLoaded = true
	})
	return nil
}

// EnsureLoaded fetches unless settings are already loaded or loading
func (s *SettingsStore) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	skip := s.state.HasLoaded || s.state.IsLoading
	s.mu.Unlock()
	if skip {
		return nil
	}
	return s.Fetch(ctx)
}

// Update merges patch immediately, then replaces the result with the
// backend's canonical value. On failure the pre-update settings are restored
func (s *SettingsStore) Update(ctx context.Context, patch models.SettingsPatch) error {
	var previous models.Settings
	s.set(func(st *SettingsState) {
		previous = st.Settings
		st.Settings = patch.Apply(st.Settings)
		st.Error = ""
	})

	w, err := s.svc.UpdateSettings(ctx, models.SettingsToWire(patch))
	if err != nil {
		return s.fail(errors.Write("settings.update", "Failed to update settings", err), func(st *SettingsState) {
			st.Settings = previous
		})
	}

	canonical := models.SettingsFromWire(w)
	s.set(func(st *SettingsState) { st.Settings = canonical })
	return nil
}

func (s *SettingsStore) SetTheme(ctx context.Context, theme models.Theme) error {
	return s.Update(ctx, models.SettingsPatch{Theme: &theme})
}

// ToggleLaunchAtLogin registers with the OS first and only persists the
// flag once that succeeded
func (s *SettingsStore) ToggleLaunchAtLogin(ctx context.Context, enabled bool) error {
	if err := s.svc.SetLaunchAtLogin(ctx, enabled); err != nil {
		return s.fail(errors.Write("settings.launch_at_login", "Failed to update launch at login", err), nil)
	}
	return s.Update(ctx, models.SettingsPatch{LaunchAtLogin: &enabled})
}

func (s *SettingsStore) ToggleMinimizeToTray(ctx context.Context, enabled bool) error {
	return s.Update(ctx, models.SettingsPatch{MinimizeToTray: &enabled})
}

func (s *SettingsStore) ToggleNotifications(ctx context.Context, enabled bool) error {
	return s.Update(ctx, models.SettingsPatch{ShowNotifications: &enabled})
}

func (s *SettingsStore) ToggleNotificationSound(ctx context.Context, enabled bool) error {
	return s.Update(ctx, models.SettingsPatch{NotificationSound: &enabled})
}

func (s *SettingsStore) SetDefaultVolume(ctx context.Context, volume int) error {
	return s.Update(ctx, models.SettingsPatch{DefaultVolume: &volume})
}

func (s *SettingsStore) SetAnnouncementEnabled(ctx context.Context, enabled bool) error {
	return s.Update(ctx, models.SettingsPatch{AnnouncementEnabled: &enabled})
}

func (s *SettingsStore) SetAnnouncementSound(ctx context.Context, sound string) error {
	return s.Update(ctx, models.SettingsPatch{AnnouncementSound: &sound})
}

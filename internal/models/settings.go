package models

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/julianstephens/chime/internal/constants"
)

// Theme is the UI theme preference
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// ParseTheme returns the theme named by s, or the default theme when s is not a known value
func ParseTheme(s string) (Theme, bool) {
	switch Theme(s) {
	case ThemeLight, ThemeDark, ThemeSystem:
		return Theme(s), true
	default:
		return Theme(constants.DefaultTheme), false
	}
}

// Settings represents application-wide settings
type Settings struct {
	Theme               Theme  `json:"theme"`
	LaunchAtLogin       bool   `json:"launchAtLogin"`
	MinimizeToTray      bool   `json:"minimizeToTray"`
	ShowNotifications   bool   `json:"showNotifications"`
	NotificationSound   bool   `json:"notificationSound"`
	DefaultVolume       int    `json:"defaultVolume"` // 0-100
	AnnouncementEnabled bool   `json:"announcementEnabled"`
	AnnouncementSound   string `json:"announcementSound"`
}

// DefaultSettings is the value used before the first successful fetch
func DefaultSettings() Settings {
	return Settings{
		Theme:               Theme(constants.DefaultTheme),
		LaunchAtLogin:       constants.DefaultLaunchAtLogin,
		MinimizeToTray:      constants.DefaultMinimizeToTray,
		ShowNotifications:   constants.DefaultShowNotifications,
		NotificationSound:   constants.DefaultNotificationSound,
		DefaultVolume:       constants.DefaultVolume,
		AnnouncementEnabled: constants.DefaultAnnouncementEnabled,
		AnnouncementSound:   constants.DefaultAnnouncementSound,
	}
}

// SettingsPatch is a partial settings update; nil fields are absent
type SettingsPatch struct {
	Theme               *Theme
	LaunchAtLogin       *bool
	MinimizeToTray      *bool
	ShowNotifications   *bool
	NotificationSound   *bool
	DefaultVolume       *int
	AnnouncementEnabled *bool
	AnnouncementSound   *string
}

// Apply merges the present fields of p into s. No clamping happens here:
// this is the optimistic guess, the backend's answer is authoritative
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.LaunchAtLogin != nil {
		s.LaunchAtLogin = *p.LaunchAtLogin
	}
	if p.MinimizeToTray != nil {
		s.MinimizeToTray = *p.MinimizeToTray
	}
	if p.ShowNotifications != nil {
		s.ShowNotifications = *p.ShowNotifications
	}
	if p.NotificationSound != nil {
		s.NotificationSound = *p.NotificationSound
	}
	if p.DefaultVolume != nil {
		s.DefaultVolume = *p.DefaultVolume
	}
	if p.AnnouncementEnabled != nil {
		s.AnnouncementEnabled = *p.AnnouncementEnabled
	}
	if p.AnnouncementSound != nil {
		s.AnnouncementSound = *p.AnnouncementSound
	}
	return s
}

// WireSettings is the backend's full settings response
type WireSettings struct {
	Theme               string `json:"theme"`
	LaunchAtLogin       bool   `json:"launch_at_login"`
	MinimizeToTray      bool   `json:"minimize_to_tray"`
	ShowNotifications   bool   `json:"show_notifications"`
	NotificationSound   bool   `json:"notification_sound"`
	DefaultVolume       int    `json:"default_volume"`
	AnnouncementEnabled bool   `json:"announcement_enabled"`
	AnnouncementSound   string `json:"announcement_sound"`
}

// UnmarshalJSON accepts a fractional or quoted default_volume, rounding it
// into range instead of failing the whole response
func (w *WireSettings) UnmarshalJSON(data []byte) error {
	type plain WireSettings
	var raw struct {
		plain
		DefaultVolume json.RawMessage `json:"default_volume"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*w = WireSettings(raw.plain)
	w.DefaultVolume = wireVolume(raw.DefaultVolume)
	return nil
}

func wireVolume(data json.RawMessage) int {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return 0
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	f = math.Max(constants.MinVolume, math.Min(constants.MaxVolume, f))
	return int(math.Round(f))
}

// WireSettingsPatch is the backend's partial settings payload
type WireSettingsPatch struct {
	Theme               *string `json:"theme,omitempty"`
	LaunchAtLogin       *bool   `json:"launch_at_login,omitempty"`
	MinimizeToTray      *bool   `json:"minimize_to_tray,omitempty"`
	ShowNotifications   *bool   `json:"show_notifications,omitempty"`
	NotificationSound   *bool   `json:"notification_sound,omitempty"`
	DefaultVolume       *int    `json:"default_volume,omitempty"`
	AnnouncementEnabled *bool   `json:"announcement_enabled,omitempty"`
	AnnouncementSound   *string `json:"announcement_sound,omitempty"`
}

// ClampVolume forces v into [0,100]
func ClampVolume(v int) int {
	return min(constants.MaxVolume, max(constants.MinVolume, v))
}

// SettingsFromWire maps a backend response, coercing unknown themes to the
// default and clamping the volume
func SettingsFromWire(w WireSettings) Settings {
	theme, _ := ParseTheme(w.Theme)
	return Settings{
		Theme:               theme,
		LaunchAtLogin:       w.LaunchAtLogin,
		MinimizeToTray:      w.MinimizeToTray,
		ShowNotifications:   w.ShowNotifications,
		NotificationSound:   w.NotificationSound,
		DefaultVolume:       ClampVolume(w.DefaultVolume),
		AnnouncementEnabled: w.AnnouncementEnabled,
		AnnouncementSound:   w.AnnouncementSound,
	}
}

// SettingsToWire maps the present fields of p; an empty theme is treated as absent
func SettingsToWire(p SettingsPatch) WireSettingsPatch {
	out := WireSettingsPatch{
		LaunchAtLogin:       p.LaunchAtLogin,
		MinimizeToTray:      p.MinimizeToTray,
		ShowNotifications:   p.ShowNotifications,
		NotificationSound:   p.NotificationSound,
		AnnouncementEnabled: p.AnnouncementEnabled,
		AnnouncementSound:   p.AnnouncementSound,
	}
	if p.Theme != nil && *p.Theme != "" {
		theme := string(*p.Theme)
		out.Theme = &theme
	}
	if p.DefaultVolume != nil {
		v := ClampVolume(*p.DefaultVolume)
		out.DefaultVolume = &v
	}
	return out
}

// WireSettingsFromMap builds a settings snapshot from key/value storage,
// falling back to defaults for missing or unparseable values
func WireSettingsFromMap(data map[string]string) WireSettings {
	d := DefaultSettings()
	return WireSettings{
		Theme:               stringOr(data, constants.SettingTheme, string(d.Theme)),
		LaunchAtLogin:       boolOr(data, constants.SettingLaunchAtLogin, d.LaunchAtLogin),
		MinimizeToTray:      boolOr(data, constants.SettingMinimizeToTray, d.MinimizeToTray),
		ShowNotifications:   boolOr(data, constants.SettingShowNotifications, d.ShowNotifications),
		NotificationSound:   boolOr(data, constants.SettingNotificationSound, d.NotificationSound),
		DefaultVolume:       intOr(data, constants.SettingDefaultVolume, d.DefaultVolume),
		AnnouncementEnabled: boolOr(data, constants.SettingAnnouncementEnabled, d.AnnouncementEnabled),
		AnnouncementSound:   stringOr(data, constants.SettingAnnouncementSound, d.AnnouncementSound),
	}
}

// PatchToMap lists the key/value pairs a partial settings payload writes
func PatchToMap(p WireSettingsPatch) map[string]string {
	out := map[string]string{}
	if p.Theme != nil {
		out[constants.SettingTheme] = *p.Theme
	}
	if p.LaunchAtLogin != nil {
		out[constants.SettingLaunchAtLogin] = strconv.FormatBool(*p.LaunchAtLogin)
	}
	if p.MinimizeToTray != nil {
		out[constants.SettingMinimizeToTray] = strconv.FormatBool(*p.MinimizeToTray)
	}
	if p.ShowNotifications != nil {
		out[constants.SettingShowNotifications] = strconv.FormatBool(*p.ShowNotifications)
	}
	if p.NotificationSound != nil {
		out[constants.SettingNotificationSound] = strconv.FormatBool(*p.NotificationSound)
	}
	if p.DefaultVolume != nil {
		out[constants.SettingDefaultVolume] = strconv.Itoa(*p.DefaultVolume)
	}
	if p.AnnouncementEnabled != nil {
		out[constants.SettingAnnouncementEnabled] = strconv.FormatBool(*p.AnnouncementEnabled)
	}
	if p.AnnouncementSound != nil {
		out[constants.SettingAnnouncementSound] = *p.AnnouncementSound
	}
	return out
}

func stringOr(data map[string]string, key, fallback string) string {
	if v, ok := data[key]; ok {
		return v
	}
	return fallback
}

func boolOr(data map[string]string, key string, fallback bool) bool {
	if v, ok := data[key]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func intOr(data map[string]string, key string, fallback int) int {
	if v, ok := data[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// DefaultSettingsMap returns the defaults in key/value storage form
func DefaultSettingsMap() map[string]string {
	d := DefaultSettings()
	theme := string(d.Theme)
	return PatchToMap(WireSettingsPatch{
		Theme:               &theme,
		LaunchAtLogin:       &d.LaunchAtLogin,
		MinimizeToTray:      &d.MinimizeToTray,
		ShowNotifications:   &d.ShowNotifications,
		NotificationSound:   &d.NotificationSound,
		DefaultVolume:       &d.DefaultVolume,
		AnnouncementEnabled: &d.AnnouncementEnabled,
		AnnouncementSound:   &d.AnnouncementSound,
	})
}

package constants

const (
	// Setting keys as stored in the key/value settings table and sent on the wire
	SettingTheme               = "theme"
	SettingLaunchAtLogin       = "launch_at_login"
	SettingMinimizeToTray      = "minimize_to_tray"
	SettingShowNotifications   = "show_notifications"
	SettingNotificationSound   = "notification_sound"
	SettingDefaultVolume       = "default_volume"
	SettingAnnouncementEnabled = "announcement_enabled"
	SettingAnnouncementSound   = "announcement_sound"

	// Default Settings Values
	DefaultTheme               = "dark"
	DefaultLaunchAtLogin       = false
	DefaultMinimizeToTray      = true
	DefaultShowNotifications   = true
	DefaultNotificationSound   = true
	DefaultVolume              = 80
	DefaultAnnouncementEnabled = true
	DefaultAnnouncementSound   = "spell"
)

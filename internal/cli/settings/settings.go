package settings

import (
	"fmt"

	"github.com/julianstephens/chime/internal/cli"
	"github.com/julianstephens/chime/internal/models"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Theme             *string `help:"UI theme (light|dark|system)."`
	LaunchAtLogin     *bool   `help:"Start the chime daemon at login."`
	MinimizeToTray    *bool   `help:"Minimize to the tray instead of quitting."`
	Notifications     *bool   `help:"Show a notification when a schedule plays."`
	NotificationSound *bool   `help:"Play a sound with notifications."`
	Volume            *int    `help:"Default volume for new schedules (0-100)."`
	Announcement      *bool   `help:"Announce the schedule name before playing."`
	AnnouncementSound *string `help:"Announcement style."`
}

func (c *SettingsCmd) Validate() error {
	if c.Theme != nil {
		if _, ok := models.ParseTheme(*c.Theme); !ok {
			return fmt.Errorf("invalid theme %q (light|dark|system)", *c.Theme)
		}
	}
	if c.Volume != nil {
		return models.ValidateVolume(*c.Volume)
	}
	return nil
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	bg := ctx.Context()
	if err := ctx.Settings.EnsureLoaded(bg); err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	// launch at login goes first: it registers with the OS and may fail on its own
	steps := []struct {
		set bool
		run func() error
	}{
		{c.LaunchAtLogin != nil, func() error { return ctx.Settings.ToggleLaunchAtLogin(bg, *c.LaunchAtLogin) }},
		{c.Theme != nil, func() error { return ctx.Settings.SetTheme(bg, models.Theme(*c.Theme)) }},
		{c.MinimizeToTray != nil, func() error { return ctx.Settings.ToggleMinimizeToTray(bg, *c.MinimizeToTray) }},
		{c.Notifications != nil, func() error { return ctx.Settings.ToggleNotifications(bg, *c.Notifications) }},
		{c.NotificationSound != nil, func() error { return ctx.Settings.ToggleNotificationSound(bg, *c.NotificationSound) }},
		{c.Volume != nil, func() error { return ctx.Settings.SetDefaultVolume(bg, *c.Volume) }},
		{c.Announcement != nil, func() error { return ctx.Settings.SetAnnouncementEnabled(bg, *c.Announcement) }},
		{c.AnnouncementSound != nil, func() error { return ctx.Settings.SetAnnouncementSound(bg, *c.AnnouncementSound) }},
	}

	updated := false
	for _, step := range steps {
		if !step.set {
			continue
		}
		if err := step.run(); err != nil {
			return err
		}
		updated = true
	}

	switch {
	case updated:
		ctx.Println(cli.SuccessStyle.Render("Settings updated successfully."))
		if c.List {
			printSettings(ctx, ctx.Settings.Snapshot().Settings)
		}
	case c.List:
		printSettings(ctx, ctx.Settings.Snapshot().Settings)
	default:
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
	}
	return nil
}

func printSettings(ctx *cli.Context, s models.Settings) {
	ctx.Println(cli.HeaderStyle.Render("Current Settings:"))
	ctx.Printf("  Theme:                %s\n", s.Theme)
	ctx.Printf("  Launch at login:      %v\n", s.LaunchAtLogin)
	ctx.Printf("  Minimize to tray:     %v\n", s.MinimizeToTray)
	ctx.Printf("  Default volume:       %d%%\n", s.DefaultVolume)
	ctx.Println(cli.HeaderStyle.Render("\nNotifications:"))
	ctx.Printf("  Show notifications:   %v\n", s.ShowNotifications)
	ctx.Printf("  Notification sound:   %v\n", s.NotificationSound)
	ctx.Printf("  Announcement:         %v\n", s.AnnouncementEnabled)
	ctx.Printf("  Announcement sound:   %s\n", s.AnnouncementSound)
}

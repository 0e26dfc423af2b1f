package schedules

import (
	"fmt"
	"time"

	"github.com/julianstephens/chime/internal/cli"
	"github.com/julianstephens/chime/internal/models"
)

type AddCmd struct {
	Name     string `arg:"" help:"Schedule name."`
	Time     string `short:"t" help:"Time of day (HH:MM, 24-hour)." required:""`
	File     string `short:"f" help:"Audio file to play." required:"" type:"path"`
	Repeat   string `short:"r" help:"Repeat rule (once|daily|weekdays|weekends|weekly|custom)." default:"once"`
	Days     string `short:"d" help:"Comma-separated weekdays for weekly repeat."`
	Interval int    `short:"i" help:"Interval in minutes for custom repeat."`
	Volume   *int   `short:"v" help:"Volume (0-100). Defaults to the default volume setting."`
	Disabled bool   `help:"Create the schedule disabled."`
}

func (c *AddCmd) Validate() error {
	if err := models.ValidateTime(c.Time); err != nil {
		return err
	}
	if c.Volume != nil {
		if err := models.ValidateVolume(*c.Volume); err != nil {
			return err
		}
	}
	return nil
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	repeat, err := cli.ParseRecurrence(c.Repeat, c.Days, c.Interval)
	if err != nil {
		return err
	}

	volume, err := c.volume(ctx)
	if err != nil {
		return err
	}

	input := models.ScheduleInput{
		Name:          c.Name,
		AudioFilePath: c.File,
		ScheduledTime: c.Time,
		Enabled:       !c.Disabled,
		Repeat:        repeat,
		Volume:        volume,
	}
	if err := input.Validate(); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	sch, err := ctx.Schedules.Create(ctx.Context(), input)
	if err != nil {
		return err
	}

	ctx.Printf("Added schedule: %s (ID: %s)\n", sch.Name, sch.ID)
	ctx.Printf("  %s, %s, next: %s\n", models.FormatTimeLabel(sch.ScheduledTime), sch.Repeat, cli.NextRunLabel(sch, time.Now()))
	return nil
}

func (c *AddCmd) volume(ctx *cli.Context) (int, error) {
	if c.Volume != nil {
		return *c.Volume, nil
	}
	if err := ctx.Settings.EnsureLoaded(ctx.Context()); err != nil {
		return 0, err
	}
	return ctx.Settings.Snapshot().Settings.DefaultVolume, nil
}

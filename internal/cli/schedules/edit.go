package schedules

import (
	"errors"
	"fmt"

	"github.com/julianstephens/chime/internal/cli"
	"github.com/julianstephens/chime/internal/models"
)

type EditCmd struct {
	ID       string  `arg:"" help:"Schedule ID or unique prefix."`
	Name     *string `help:"New name."`
	Time     *string `short:"t" help:"New time of day (HH:MM, 24-hour)."`
	File     *string `short:"f" help:"New audio file." type:"path"`
	Repeat   *string `short:"r" help:"New repeat rule (once|daily|weekdays|weekends|weekly|custom)."`
	Days     string  `short:"d" help:"Comma-separated weekdays for weekly repeat."`
	Interval int     `short:"i" help:"Interval in minutes for custom repeat."`
	Volume   *int    `short:"v" help:"New volume (0-100)."`
}

func (c *EditCmd) Validate() error {
	if c.Time != nil {
		if err := models.ValidateTime(*c.Time); err != nil {
			return err
		}
	}
	if c.Volume != nil {
		if err := models.ValidateVolume(*c.Volume); err != nil {
			return err
		}
	}
	if c.Repeat == nil && (c.Days != "" || c.Interval != 0) {
		return errors.New("--days and --interval require --repeat")
	}
	return nil
}

func (c *EditCmd) patch() (models.SchedulePatch, error) {
	patch := models.SchedulePatch{
		Name:          c.Name,
		AudioFilePath: c.File,
		ScheduledTime: c.Time,
		Volume:        c.Volume,
	}
	if c.Repeat != nil {
		repeat, err := cli.ParseRecurrence(*c.Repeat, c.Days, c.Interval)
		if err != nil {
			return models.SchedulePatch{}, err
		}
		patch.Repeat = &repeat
	}
	return patch, nil
}

func (c *EditCmd) Run(ctx *cli.Context) error {
	patch, err := c.patch()
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		ctx.Println("No changes specified. Use flags such as --time or --volume to update the schedule.")
		return nil
	}

	sch, err := ctx.FindSchedule(ctx.Context(), c.ID)
	if err != nil {
		return err
	}

	updated, err := ctx.Schedules.Update(ctx.Context(), sch.ID, patch)
	if err != nil {
		return fmt.Errorf("failed to update schedule %s: %w", sch.ID, err)
	}

	ctx.Printf("Updated schedule: %s (ID: %s)\n", updated.Name, updated.ID)
	return nil
}

package schedules

import (
	"github.com/julianstephens/chime/internal/cli"
)

type EnableCmd struct {
	ID string `arg:"" help:"Schedule ID or unique prefix."`
}

func (c *EnableCmd) Run(ctx *cli.Context) error {
	return setEnabled(ctx, c.ID, true)
}

type DisableCmd struct {
	ID string `arg:"" help:"Schedule ID or unique prefix."`
}

func (c *DisableCmd) Run(ctx *cli.Context) error {
	return setEnabled(ctx, c.ID, false)
}

func setEnabled(ctx *cli.Context, id string, enabled bool) error {
	sch, err := ctx.FindSchedule(ctx.Context(), id)
	if err != nil {
		return err
	}
	if sch.Enabled == enabled {
		ctx.Printf("Schedule %s is already %s.\n", sch.Name, state(enabled))
		return nil
	}

	if err := ctx.Schedules.ToggleEnabled(ctx.Context(), sch.ID, enabled); err != nil {
		return err
	}

	ctx.Printf("Schedule %s %s.\n", sch.Name, state(enabled))
	return nil
}

func state(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

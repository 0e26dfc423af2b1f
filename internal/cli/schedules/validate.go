package schedules

import (
	"fmt"

	"github.com/julianstephens/chime/internal/cli"
	"github.com/julianstephens/chime/internal/validation"
)

type ValidateCmd struct {
	Fix bool `help:"Delete duplicate schedules, keeping the oldest of each."`
}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	if err := ctx.Schedules.FetchAll(ctx.Context()); err != nil {
		return err
	}
	schedules := ctx.Schedules.Snapshot().Schedules

	result := validation.New().ValidateSchedules(schedules)
	ctx.Print(result.FormatReport())
	if !result.HasConflicts() {
		return nil
	}

	if c.Fix {
		actions := validation.AutoFixDuplicateSchedules(result.Conflicts, schedules, func(id string) error {
			return ctx.Schedules.Delete(ctx.Context(), id)
		})
		if len(actions) == 0 {
			ctx.Println("\nNothing to fix automatically.")
		}
		for _, action := range actions {
			ctx.Println(cli.SuccessStyle.Render("✓ " + action.Action))
		}
		result = validation.New().ValidateSchedules(ctx.Schedules.Snapshot().Schedules)
		if !result.HasConflicts() {
			return nil
		}
	}

	return fmt.Errorf("%d conflict(s) found", len(result.Conflicts))
}

package schedules

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/chime/internal/cli"
)

type DeleteCmd struct {
	ID  string `arg:"" help:"Schedule ID or unique prefix."`
	Yes bool   `short:"y" help:"Skip the confirmation prompt."`
}

// confirmFunc asks the user before deleting; replaced in tests
var confirmFunc = func(title string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return confirmed, nil
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	sch, err := ctx.FindSchedule(ctx.Context(), c.ID)
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := confirmFunc(fmt.Sprintf("Delete schedule %q?", sch.Name))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Cancelled.")
			return nil
		}
	}

	if ctx.Schedules.IsTesting(sch.ID) {
		_ = ctx.Schedules.StopTest(ctx.Context())
	}

	if err := ctx.Schedules.Delete(ctx.Context(), sch.ID); err != nil {
		return err
	}

	ctx.Printf("Deleted schedule: %s (ID: %s)\n", sch.Name, sch.ID)
	return nil
}

package schedules

import (
	"encoding/json"
	"time"

	"github.com/julianstephens/chime/internal/cli"
	"github.com/julianstephens/chime/internal/models"
)

type ListCmd struct {
	JSON bool `help:"Print schedules as JSON."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Schedules.FetchAll(ctx.Context()); err != nil {
		return err
	}
	state := ctx.Schedules.Snapshot()

	if c.JSON {
		schedules := state.Schedules
		if schedules == nil {
			schedules = []models.Schedule{}
		}
		enc := json.NewEncoder(ctx.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(schedules)
	}

	cli.PrintSchedules(ctx.Writer(), state.Schedules, state.ActiveTestID, time.Now())
	return nil
}

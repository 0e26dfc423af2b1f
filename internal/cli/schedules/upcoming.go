package schedules

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/julianstephens/chime/internal/cli"
	"github.com/julianstephens/chime/internal/models"
	"github.com/julianstephens/chime/internal/recurrence"
)

type UpcomingCmd struct {
	Count int  `short:"n" help:"Number of runs to show." default:"5"`
	JSON  bool `help:"Print runs as JSON."`
}

type upcomingRun struct {
	ScheduleID   string                `json:"scheduleId"`
	Name         string                `json:"name"`
	ScheduledFor time.Time             `json:"scheduledFor"`
	Repeat       recurrence.Recurrence `json:"repeatType"`
}

func (c *UpcomingCmd) Validate() error {
	if c.Count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", c.Count)
	}
	return nil
}

// upcomingRuns lists the next run of each enabled schedule, soonest first
func upcomingRuns(schedules []models.Schedule, now time.Time, count int) []upcomingRun {
	runs := make([]upcomingRun, 0, len(schedules))
	for _, sch := range schedules {
		if !sch.Enabled {
			continue
		}
		next, ok := recurrence.Next(sch.Repeat, sch.ScheduledTime, now)
		if !ok {
			continue
		}
		runs = append(runs, upcomingRun{
			ScheduleID:   sch.ID,
			Name:         sch.Name,
			ScheduledFor: next,
			Repeat:       sch.Repeat,
		})
	}

	slices.SortStableFunc(runs, func(a, b upcomingRun) int {
		return a.ScheduledFor.Compare(b.ScheduledFor)
	})
	if len(runs) > count {
		runs = runs[:count]
	}
	return runs
}

func (c *UpcomingCmd) Run(ctx *cli.Context) error {
	if err := ctx.Schedules.FetchAll(ctx.Context()); err != nil {
		return err
	}
	runs := upcomingRuns(ctx.Schedules.Snapshot().Schedules, time.Now(), c.Count)

	if c.JSON {
		enc := json.NewEncoder(ctx.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		ctx.Println(cli.DimStyle.Render("No upcoming runs."))
		return nil
	}
	for _, run := range runs {
		ctx.Printf("%s  %s  %s\n",
			run.ScheduledFor.Format("Mon Jan 2 15:04"),
			run.Name,
			cli.DimStyle.Render(recurrence.Format(run.Repeat)))
	}
	return nil
}

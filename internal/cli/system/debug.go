package system

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/chime/internal/cli"
	"github.com/julianstephens/chime/internal/models"
	"github.com/julianstephens/chime/internal/storage"
)

type DebugCmd struct {
	DBPath        *DebugDBPathCmd        `cmd:"" help:"Show database path."`
	DumpSchedule  *DebugDumpScheduleCmd  `cmd:"" help:"Dump a stored schedule row as JSON."`
	DumpSchedules *DebugDumpSchedulesCmd `cmd:"" help:"Dump all stored schedule rows as JSON."`
	DumpSettings  *DebugDumpSettingsCmd  `cmd:"" help:"Dump settings data as JSON."`
}

func printJSON(ctx *cli.Context, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{
		"path": ctx.Store.GetConfigPath(),
	})
}

type DebugDumpScheduleCmd struct {
	ID string `arg:"" help:"ID of the schedule to dump."`
}

func (cmd *DebugDumpScheduleCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	defer ctx.Store.Close()

	row, err := ctx.Store.GetSchedule(cmd.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("schedule not found: %s", cmd.ID)
		}
		return fmt.Errorf("failed to get schedule: %w", err)
	}

	// the record is exactly what the backend hands to clients
	rec, err := row.Record()
	if err != nil {
		return err
	}
	return printJSON(ctx, rec)
}

type DebugDumpSchedulesCmd struct{}

func (cmd *DebugDumpSchedulesCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	defer ctx.Store.Close()

	rows, err := ctx.Store.GetAllSchedules()
	if err != nil {
		return fmt.Errorf("failed to get schedules: %w", err)
	}

	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.Record()
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	return printJSON(ctx, records)
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	defer ctx.Store.Close()

	data, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return printJSON(ctx, models.WireSettingsFromMap(data))
}

package system

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/chime/internal/audio"
	"github.com/julianstephens/chime/internal/cli"
	"github.com/julianstephens/chime/internal/constants"
	"github.com/julianstephens/chime/internal/daemon"
	"github.com/julianstephens/chime/internal/keyring"
	"github.com/julianstephens/chime/internal/models"
	"github.com/julianstephens/chime/internal/recurrence"
	"github.com/julianstephens/chime/internal/validation"
)

var playerCheckFunc = func(command string) (string, error) {
	return audio.NewCommandPlayer(command).Available()
}

type severity int

const (
	// fail makes the command exit with an error
	fail severity = iota
	warn
	info
)

type check struct {
	name     string
	level    severity
	needsDB  bool
	run      func(ctx *cli.Context) error
	okDetail func(ctx *cli.Context) string
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	checks := []check{
		{name: "Database reachable", level: fail, run: checkDBReachable},
		{name: "Schema version", level: fail, needsDB: true, run: checkSchemaVersion},
		{name: "Migrations complete", level: fail, needsDB: true, run: checkMigrationsComplete},
		{name: "Settings", level: fail, needsDB: true, run: checkSettings},
		{name: "Schedule data", level: fail, needsDB: true, run: checkSchedules},
		{name: "Schedule conflicts", level: warn, needsDB: true, run: checkConflicts},
		{name: "Audio files", level: warn, needsDB: true, run: checkAudioFiles},
		{name: "Audio player", level: warn, run: checkPlayer, okDetail: playerDetail},
		{name: "Clock/timezone", level: fail, run: func(*cli.Context) error { return checkClockTimezone() }},
		{name: "Daemon", level: info, run: checkDaemon, okDetail: daemonDetail},
		{name: "Keyring", level: info, run: checkKeyring},
	}

	hasError := false
	dbReachable := false
	for i, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}

		err := c.run(ctx)
		if i == 0 && err == nil {
			dbReachable = true
		}
		if err == nil {
			line := fmt.Sprintf("✓ %s: OK", c.name)
			if c.okDetail != nil {
				if detail := c.okDetail(ctx); detail != "" {
					line += " (" + detail + ")"
				}
			}
			ctx.Println(cli.SuccessStyle.Render(line))
			continue
		}

		switch c.level {
		case fail:
			ctx.Println(cli.DangerStyle.Render(fmt.Sprintf("❌ %s: FAIL", c.name)))
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		case warn:
			ctx.Println(cli.WarningStyle.Render(fmt.Sprintf("⚠ %s: WARNING", c.name)))
			ctx.Printf("   %v\n", err)
		case info:
			ctx.Printf("ℹ %s: %v\n", c.name, err)
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if ctx.Store == nil {
		return errors.New("no storage configured")
	}
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	return nil
}

func schemaVersion(ctx *cli.Context) (current, latest int, ok bool, err error) {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return 0, 0, false, nil
	}
	current, latest, err = m.SchemaVersion()
	if err != nil {
		return 0, 0, true, fmt.Errorf("failed to read schema version: %w", err)
	}
	return current, latest, true, nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, ok, err := schemaVersion(ctx)
	if !ok || err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	current, latest, ok, err := schemaVersion(ctx)
	if !ok || err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run '%s migrate')",
			current, latest, constants.AppName)
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	data, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if theme, ok := data[constants.SettingTheme]; ok {
		if _, valid := models.ParseTheme(theme); !valid {
			return fmt.Errorf("unknown theme %q", theme)
		}
	}
	return nil
}

func checkSchedules(ctx *cli.Context) error {
	rows, err := ctx.Store.GetAllSchedules()
	if err != nil {
		return fmt.Errorf("failed to get schedules: %w", err)
	}

	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if seen[row.ID] {
			return fmt.Errorf("duplicate schedule ID found: %s", row.ID)
		}
		seen[row.ID] = true

		if err := models.ValidateTime(row.ScheduledTime); err != nil {
			return fmt.Errorf("schedule %s: %w", row.ID, err)
		}
		if err := models.ValidateVolume(row.Volume); err != nil {
			return fmt.Errorf("schedule %s: %w", row.ID, err)
		}
		var w recurrence.Wire
		if err := json.Unmarshal([]byte(row.RepeatType), &w); err != nil {
			return fmt.Errorf("schedule %s: invalid repeat rule: %w", row.ID, err)
		}
		if err := recurrence.Validate(recurrence.FromWire(w)); err != nil {
			return fmt.Errorf("schedule %s: %w", row.ID, err)
		}
	}
	return nil
}

func checkConflicts(ctx *cli.Context) error {
	rows, err := ctx.Store.GetAllSchedules()
	if err != nil {
		return fmt.Errorf("failed to get schedules: %w", err)
	}

	schedules := make([]models.Schedule, len(rows))
	for i, row := range rows {
		rec, err := row.Record()
		if err != nil {
			return err
		}
		schedules[i] = models.ScheduleFromRecord(rec)
	}
	result := validation.New().ValidateSchedules(schedules)
	if !result.HasConflicts() {
		return nil
	}
	return fmt.Errorf("%d conflict(s) found, run '%s validate' for details", len(result.Conflicts), constants.AppName)
}

func checkAudioFiles(ctx *cli.Context) error {
	rows, err := ctx.Store.GetAllSchedules()
	if err != nil {
		return fmt.Errorf("failed to get schedules: %w", err)
	}

	var errs []error
	for _, row := range rows {
		if !row.Enabled {
			continue
		}
		if err := audio.ValidateFile(row.AudioFilePath); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", row.Name, err))
		}
	}
	return errors.Join(errs...)
}

func checkPlayer(ctx *cli.Context) error {
	_, err := playerCheckFunc(ctx.Config.Player)
	return err
}

func playerDetail(ctx *cli.Context) string {
	path, _ := playerCheckFunc(ctx.Config.Player)
	return path
}

func checkClockTimezone() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkDaemon(ctx *cli.Context) error {
	_, err := daemon.Discover(daemon.LockfilePath(ctx.ConfigDir))
	if errors.Is(err, daemon.ErrNotRunning) {
		return errors.New("not running")
	}
	return err
}

func daemonDetail(ctx *cli.Context) string {
	lock, err := daemon.Discover(daemon.LockfilePath(ctx.ConfigDir))
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s, pid %d", lock.Addr, lock.PID)
}

// checkKeyring only matters when the connection string lives in the keyring
func checkKeyring(ctx *cli.Context) error {
	if ctx.Config.DataPath != constants.KeyringDataPath {
		return errors.New("not in use")
	}
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	if _, err := keyring.GetConnectionString(); err != nil {
		return err
	}
	return nil
}

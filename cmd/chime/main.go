package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"

	"github.com/julianstephens/chime/internal/cli"
	"github.com/julianstephens/chime/internal/cli/schedules"
	"github.com/julianstephens/chime/internal/cli/settings"
	"github.com/julianstephens/chime/internal/cli/system"
	"github.com/julianstephens/chime/internal/config"
	"github.com/julianstephens/chime/internal/constants"
	apperrors "github.com/julianstephens/chime/internal/errors"
	"github.com/julianstephens/chime/internal/logger"
	"github.com/julianstephens/chime/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"string" default:"~/.config/chime/config.yaml"`
	Data    string `help:"Database path, PostgreSQL connection string or 'keyring'. Overrides data_path. Credentials must NOT be embedded in the connection string." placeholder:"PATH"`
	Remote  string `help:"Daemon to talk to: auto, off or a URL. Overrides remote."`
	Debug   bool   `help:"Enable debug logging to stderr."`

	Init     system.InitCmd    `cmd:"" help:"Initialize chime storage."`
	Migrate  system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Serve    system.ServeCmd   `cmd:"" help:"Run the chime daemon."`
	DebugCmd system.DebugCmd   `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`

	List     schedules.ListCmd     `cmd:"" help:"List schedules." default:"1"`
	Upcoming schedules.UpcomingCmd `cmd:"" help:"Show the next runs of enabled schedules."`
	Add      schedules.AddCmd      `cmd:"" help:"Add a schedule."`
	Edit     schedules.EditCmd     `cmd:"" help:"Edit a schedule."`
	Delete   schedules.DeleteCmd   `cmd:"" help:"Delete a schedule."`
	Enable   schedules.EnableCmd   `cmd:"" help:"Enable a schedule."`
	Disable  schedules.DisableCmd  `cmd:"" help:"Disable a schedule."`
	Test     schedules.TestCmd     `cmd:"" help:"Play a schedule's audio now."`
	Stop     schedules.StopCmd     `cmd:"" help:"Stop test playback."`
	Validate schedules.ValidateCmd `cmd:"" help:"Check schedules for duplicates and collisions."`

	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Keyring  struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string with the password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability." default:"1"`
	} `cmd:"" help:"Manage database credentials in the OS keyring."`
}

// storeOnly commands work on the local store directly and never go through a daemon
var storeOnly = map[string]bool{
	"init":    true,
	"migrate": true,
	"doctor":  true,
	"serve":   true,
	"debug":   true,
	"keyring": true,
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Audio reminder scheduler"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	apperrors.Fatal(run(kctx))
}

func run(kctx *kong.Context) error {
	command := strings.Fields(kctx.Command())[0]

	configPath, err := config.ExpandPath(CLI.Config)
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if CLI.Data != "" {
		cfg.DataPath = CLI.Data
	}
	if CLI.Remote != "" {
		cfg.Remote = CLI.Remote
	}
	if CLI.Debug {
		cfg.Debug = true
	}
	configDir := filepath.Dir(configPath)

	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: configDir,
		Stderr:    command == "serve",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	defer logger.Close()
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// keyring commands must work before the keyring holds anything
	var provider storage.Provider
	if command != "keyring" {
		if provider, err = cli.OpenProvider(cfg.DataPath); err != nil {
			return err
		}
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := cli.NewContext(cfg, configDir, provider).WithContext(sigCtx)
	defer appCtx.Close()

	if !storeOnly[command] {
		if err := appCtx.Connect(sigCtx); err != nil {
			return err
		}
	}

	logger.Debug("Running command", "command", kctx.Command(), "remote", appCtx.Remote)
	return kctx.Run(appCtx)
}

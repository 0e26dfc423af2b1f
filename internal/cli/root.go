package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/julianstephens/chime/internal/audio"
	"github.com/julianstephens/chime/internal/autostart"
	"github.com/julianstephens/chime/internal/config"
	"github.com/julianstephens/chime/internal/constants"
	"github.com/julianstephens/chime/internal/daemon"
	"github.com/julianstephens/chime/internal/keyring"
	"github.com/julianstephens/chime/internal/logger"
	"github.com/julianstephens/chime/internal/models"
	"github.com/julianstephens/chime/internal/recurrence"
	"github.com/julianstephens/chime/internal/service"
	"github.com/julianstephens/chime/internal/service/local"
	"github.com/julianstephens/chime/internal/service/remote"
	"github.com/julianstephens/chime/internal/storage"
	"github.com/julianstephens/chime/internal/storage/postgres"
	"github.com/julianstephens/chime/internal/storage/sqlite"
	"github.com/julianstephens/chime/internal/store"
)

// Context is passed to every command's Run method
type Context struct {
	Config    *config.Config
	ConfigDir string

	// Store is the local storage provider. Commands that talk to the backend
	// go through Service instead, which may be a remote daemon
	Store storage.Provider

	Service   service.Service
	Schedules *store.ScheduleStore
	Settings  *store.SettingsStore

	// Player is set only when the backend runs in this process
	Player audio.Player
	Remote bool

	Out io.Writer

	ctx context.Context
}

func NewContext(cfg *config.Config, configDir string, provider storage.Provider) *Context {
	return &Context{
		Config:    cfg,
		ConfigDir: configDir,
		Store:     provider,
		Out:       os.Stdout,
	}
}

// WithContext sets the context handed to backend calls, usually one that is
// cancelled on interrupt
func (c *Context) WithContext(ctx context.Context) *Context {
	c.ctx = ctx
	return c
}

// Context returns the context for backend calls
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// UseService points the stores at svc
func (c *Context) UseService(svc service.Service) {
	c.Service = svc
	c.Schedules = store.NewScheduleStore(svc)
	c.Settings = store.NewSettingsStore(svc)
}

// UseLocal runs the backend in this process over c.Store
func (c *Context) UseLocal(player audio.Player, launcher autostart.Launcher) {
	c.Player = player
	c.Remote = false
	c.UseService(local.New(c.Store, player, launcher, local.Options{
		CheckFiles: c.Config.ShouldCheckFiles(),
	}))
}

// UseRemote talks to a daemon
func (c *Context) UseRemote(client *remote.Client) {
	c.Player = nil
	c.Remote = true
	c.UseService(client)
}

// LocalBackend returns the player and launcher used in-process
func (c *Context) LocalBackend() (audio.Player, autostart.Launcher) {
	return audio.NewCommandPlayer(c.Config.Player), autostart.NewFileLauncher(constants.ServeCommand)
}

// Connect selects the backend. An explicit remote URL always wins; in auto
// mode a running daemon is used when its lockfile checks out, otherwise the
// local store is loaded
func (c *Context) Connect(ctx context.Context) error {
	if url := c.Config.RemoteURL(); url != "" {
		client := remote.New(url, c.Config.Secret)
		if err := client.Health(ctx); err != nil {
			return fmt.Errorf("daemon at %s is not reachable: %w", url, err)
		}
		c.UseRemote(client)
		return nil
	}

	if c.Config.Remote == config.RemoteAuto {
		lock, err := daemon.Discover(daemon.LockfilePath(c.ConfigDir))
		switch {
		case err == nil:
			logger.Debug("Using daemon", "addr", lock.Addr, "pid", lock.PID)
			c.UseRemote(remote.New(lock.URL(), lock.Secret))
			return nil
		case errors.Is(err, daemon.ErrNotRunning):
			logger.Debug("No daemon running, using local backend")
		default:
			logger.Warn("Ignoring daemon lockfile", "error", err)
		}
	}

	if c.Store == nil {
		return errors.New("no storage configured")
	}
	if err := c.Store.Load(); err != nil {
		return err
	}
	player, launcher := c.LocalBackend()
	c.UseLocal(player, launcher)
	return nil
}

// Close releases the local store
func (c *Context) Close() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

// IsPostgres reports whether dataPath is a PostgreSQL connection string
func IsPostgres(dataPath string) bool {
	return strings.HasPrefix(dataPath, "postgres://") || strings.HasPrefix(dataPath, "postgresql://")
}

// OpenProvider picks the storage backend for dataPath: the keyring marker,
// a PostgreSQL connection string or a SQLite file path
func OpenProvider(dataPath string) (storage.Provider, error) {
	if dataPath == constants.KeyringDataPath {
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, errors.New("no connection string found in keyring. Use 'chime keyring set' to store one")
			}
			return nil, err
		}
		// Passwords are allowed here since the keyring is encrypted
		return postgres.New(connStr), nil
	}

	if IsPostgres(dataPath) {
		if _, err := postgres.ValidateConnString(dataPath); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, errors.New("PostgreSQL connection strings with embedded credentials are not allowed. Use 'chime keyring set' or .pgpass instead")
			}
			return nil, err
		}
		return postgres.New(dataPath), nil
	}

	path, err := config.ExpandPath(dataPath)
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(path), nil
}

var dayMap = map[string]int{
	"sun":       0,
	"sunday":    0,
	"mon":       1,
	"monday":    1,
	"tue":       2,
	"tuesday":   2,
	"wed":       3,
	"wednesday": 3,
	"thu":       4,
	"thursday":  4,
	"fri":       5,
	"friday":    5,
	"sat":       6,
	"saturday":  6,
}

// ParseWeekdays parses a comma-separated list of weekday names or numbers
// (0=Sunday, 6=Saturday). Repeated days are kept once
func ParseWeekdays(s string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		d, ok := dayMap[part]
		if !ok {
			num, err := strconv.Atoi(part)
			if err != nil || num < 0 || num > 6 {
				return nil, fmt.Errorf("invalid weekday: %s", part)
			}
			d = num
		}
		if !slices.Contains(days, d) {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return nil, errors.New("no weekdays given")
	}
	return days, nil
}

// ParseRecurrence builds a rule from the --repeat, --days and --interval flags
func ParseRecurrence(kind, days string, interval int) (recurrence.Recurrence, error) {
	switch recurrence.Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case "", recurrence.KindOnce:
		return recurrence.Once(), nil
	case recurrence.KindDaily:
		return recurrence.Daily(), nil
	case recurrence.KindWeekdays:
		return recurrence.Weekdays(), nil
	case recurrence.KindWeekends:
		return recurrence.Weekends(), nil
	case recurrence.KindCustom:
		if interval < 1 {
			return recurrence.Recurrence{}, errors.New("--interval must be at least 1 minute for custom recurrence")
		}
		return recurrence.Custom(interval), nil
	case recurrence.KindWeekly:
		if days == "" {
			return recurrence.Recurrence{}, errors.New("--days must be specified for weekly recurrence")
		}
		parsed, err := ParseWeekdays(days)
		if err != nil {
			return recurrence.Recurrence{}, err
		}
		return recurrence.Weekly(parsed...), nil
	default:
		return recurrence.Recurrence{}, fmt.Errorf("invalid recurrence type: %s (once|daily|weekdays|weekends|weekly|custom)", kind)
	}
}

// FindSchedule resolves id, or a unique prefix of it, against the schedule
// list, fetching the list first if needed
func (c *Context) FindSchedule(ctx context.Context, id string) (models.Schedule, error) {
	if sch, ok := c.Schedules.Find(id); ok {
		return sch, nil
	}
	if err := c.Schedules.FetchAll(ctx); err != nil {
		return models.Schedule{}, err
	}
	if sch, ok := c.Schedules.Find(id); ok {
		return sch, nil
	}

	var matches []models.Schedule
	for _, sch := range c.Schedules.Snapshot().Schedules {
		if id != "" && strings.HasPrefix(sch.ID, id) {
			matches = append(matches, sch)
		}
	}
	switch len(matches) {
	case 0:
		return models.Schedule{}, fmt.Errorf("schedule %s not found", id)
	case 1:
		return matches[0], nil
	default:
		return models.Schedule{}, fmt.Errorf("schedule id %s is ambiguous (%d matches)", id, len(matches))
	}
}

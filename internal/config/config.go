// Package config loads the chime YAML config file, an optional .env file
// beside it and CHIME_* environment overrides
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/chime/internal/constants"
)

const (
	// RemoteAuto uses a running daemon when one is found, else the local backend
	RemoteAuto = "auto"
	// RemoteOff always uses the local backend
	RemoteOff = "off"
)

var userHomeDirFunc = os.UserHomeDir

// Config is the top-level application configuration
type Config struct {
	// DataPath is a SQLite file path, a PostgreSQL connection string without
	// password, or "keyring"
	DataPath string `yaml:"data_path"`

	// Listen is the daemon's HTTP listen address
	Listen string `yaml:"listen"`

	// Remote is "auto", "off" or a daemon base URL
	Remote string `yaml:"remote"`
	// Secret is sent to a daemon addressed by URL. Discovered daemons supply their own
	Secret string `yaml:"secret,omitempty"`

	// Player is the external playback command; empty picks the first one installed
	Player string `yaml:"player"`

	// CheckFiles validates audio files when schedules are saved. Defaults to true
	CheckFiles *bool `yaml:"check_files"`

	AllowOrigins []string `yaml:"allow_origins,omitempty"`

	Debug bool `yaml:"debug"`
}

// DefaultConfig returns an in-memory default configuration
func DefaultConfig() *Config {
	checkFiles := true
	return &Config{
		DataPath:   constants.DefaultDataPath,
		Listen:     constants.DefaultListenAddr,
		Remote:     RemoteAuto,
		CheckFiles: &checkFiles,
	}
}

// Normalize fills in missing values with defaults
func (c *Config) Normalize() {
	def := DefaultConfig()
	if strings.TrimSpace(c.DataPath) == "" {
		c.DataPath = def.DataPath
	}
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Remote == "" {
		c.Remote = def.Remote
	}
	if c.CheckFiles == nil {
		c.CheckFiles = def.CheckFiles
	}
}

// ShouldCheckFiles reports whether audio files are validated on save
func (c *Config) ShouldCheckFiles() bool {
	return c.CheckFiles == nil || *c.CheckFiles
}

// RemoteURL returns the explicit daemon URL, or "" for auto and off
func (c *Config) RemoteURL() string {
	switch c.Remote {
	case RemoteAuto, RemoteOff, "":
		return ""
	default:
		return strings.TrimRight(c.Remote, "/")
	}
}

// Dir returns the directory holding the config file, logs and lockfile
func Dir() (string, error) {
	return ExpandPath(constants.DefaultConfigDir)
}

// DefaultPath returns the default config file location
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.ConfigFileName), nil
}

// ExpandPath replaces a leading ~ with the user's home directory
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := userHomeDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Load reads the config at path. A missing file yields the defaults. A .env
// file in the same directory and then the process environment override the
// file's values
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	dotenv, err := godotenv.Read(filepath.Join(filepath.Dir(path), constants.EnvFileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", constants.EnvFileName, err)
	}
	if err := cfg.applyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}); err != nil {
		return nil, err
	}

	cfg.Normalize()
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("CHIME_DATA_PATH"); ok {
		c.DataPath = v
	}
	if v, ok := lookup("CHIME_LISTEN"); ok {
		c.Listen = v
	}
	if v, ok := lookup("CHIME_REMOTE"); ok {
		c.Remote = v
	}
	if v, ok := lookup("CHIME_SECRET"); ok {
		c.Secret = v
	}
	if v, ok := lookup("CHIME_PLAYER"); ok {
		c.Player = v
	}
	if v, ok := lookup("CHIME_CHECK_FILES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CHIME_CHECK_FILES %q: %w", v, err)
		}
		c.CheckFiles = &b
	}
	if v, ok := lookup("CHIME_DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CHIME_DEBUG %q: %w", v, err)
		}
		c.Debug = b
	}
	return nil
}

// Save writes cfg to path with 0600 permissions, creating the directory
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	path, err := ExpandPath(path)
	if err != nil {
		return err
	}

	cfg.Normalize()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	// WriteFile keeps the mode of an existing file
	return os.Chmod(path, 0o600)
}

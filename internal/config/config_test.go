package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/chime/internal/constants"
)

var envKeys = []string{
	"CHIME_DATA_PATH", "CHIME_LISTEN", "CHIME_REMOTE", "CHIME_SECRET",
	"CHIME_PLAYER", "CHIME_CHECK_FILES", "CHIME_DEBUG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != constants.DefaultListenAddr || cfg.Remote != RemoteAuto || !cfg.ShouldCheckFiles() {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Load should not create the config file")
	}
}

func TestLoadFileAndNormalize(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "data_path: /srv/chime.db\nplayer: mpv\ncheck_files: false\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataPath != "/srv/chime.db" || cfg.Player != "mpv" || cfg.ShouldCheckFiles() {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Listen != constants.DefaultListenAddr {
		t.Errorf("expected listen to be normalized, got %q", cfg.Listen)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("listen: 127.0.0.1:9000\nplayer: ffplay\n"), 0600); err != nil {
		t.Fatal(err)
	}
	dotenv := "CHIME_PLAYER=paplay\nCHIME_REMOTE=off\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHIME_REMOTE", "http://127.0.0.1:9000/")
	t.Setenv("CHIME_DEBUG", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Player != "paplay" {
		t.Errorf("expected .env to override file, got %q", cfg.Player)
	}
	if cfg.RemoteURL() != "http://127.0.0.1:9000" {
		t.Errorf("expected environment to override .env, got %q", cfg.Remote)
	}
	if !cfg.Debug {
		t.Error("expected debug from environment")
	}

	t.Setenv("CHIME_CHECK_FILES", "maybe")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid boolean")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Player = "afplay"
	cfg.Remote = RemoteOff
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Player != "afplay" || loaded.Remote != RemoteOff || loaded.RemoteURL() != "" {
		t.Errorf("unexpected loaded config %+v", loaded)
	}
}

func TestExpandPath(t *testing.T) {
	old := userHomeDirFunc
	t.Cleanup(func() { userHomeDirFunc = old })
	userHomeDirFunc = func() (string, error) { return "/home/chime", nil }

	tests := []struct {
		in, want string
	}{
		{"~", "/home/chime"},
		{"~/.config/chime", "/home/chime/.config/chime"},
		{"/abs/path", "/abs/path"},
		{"~other/x", "~other/x"},
		{"postgres://u@h/db", "postgres://u@h/db"},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		if err != nil {
			t.Fatalf("ExpandPath(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

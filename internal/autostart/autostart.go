// Package autostart registers chime to start when the user logs in
package autostart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/julianstephens/chime/internal/constants"
)

var ErrUnsupported = errors.New("launch at login is not supported on this platform")

var (
	userConfigDirFunc = os.UserConfigDir
	userHomeDirFunc   = os.UserHomeDir
	executableFunc    = os.Executable
	goos              = runtime.GOOS
)

// Launcher enables or disables starting at login
type Launcher interface {
	SetEnabled(enabled bool) error
}

// FileLauncher writes an XDG autostart entry on Linux or a LaunchAgent on macOS
type FileLauncher struct {
	// Args are passed to the executable, e.g. ["serve"]
	Args []string
}

func NewFileLauncher(args ...string) *FileLauncher {
	return &FileLauncher{Args: args}
}

// Path returns the autostart file location for the current platform
func (l *FileLauncher) Path() (string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		dir, err := userConfigDirFunc()
		if err != nil {
			return "", fmt.Errorf("failed to get user config dir: %w", err)
		}
		return filepath.Join(dir, "autostart", constants.AutostartFileName), nil
	case "darwin":
		home, err := userHomeDirFunc()
		if err != nil {
			return "", fmt.Errorf("failed to get home dir: %w", err)
		}
		return filepath.Join(home, "Library", "LaunchAgents", constants.AutostartIdentifier+".plist"), nil
	default:
		return "", ErrUnsupported
	}
}

func (l *FileLauncher) SetEnabled(enabled bool) error {
	path, err := l.Path()
	if err != nil {
		return err
	}

	if !enabled {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove autostart entry: %w", err)
		}
		return nil
	}

	exe, err := executableFunc()
	if err != nil {
		return fmt.Errorf("failed to resolve executable: %w", err)
	}

	var content string
	if goos == "darwin" {
		content = l.plist(exe)
	} else {
		content = l.desktopEntry(exe)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create autostart directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write autostart entry: %w", err)
	}
	return nil
}

func (l *FileLauncher) desktopEntry(exe string) string {
	execLine := append([]string{quoteExec(exe)}, l.Args...)
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=Chime
Comment=Audio reminders
Exec=%s
Terminal=false
X-GNOME-Autostart-enabled=true
`, strings.Join(execLine, " "))
}

func (l *FileLauncher) plist(exe string) string {
	var args strings.Builder
	for _, a := range append([]string{exe}, l.Args...) {
		fmt.Fprintf(&args, "\t\t<string>%s</string>\n", xmlEscape(a))
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
%s	</array>
	<key>RunAtLoad</key>
	<true/>
</dict>
</plist>
`, constants.AutostartIdentifier, args.String())
}

func quoteExec(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func xmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
	return r.Replace(s)
}
